package accounts

// DefaultChart returns a compact four level starter chart. Only the detail
// accounts accept journal lines.
func DefaultChart() []Account {
	return []Account{
		{ID: "1000", Code: "1000", Name: "Assets", Type: TypeAsset, Level: LevelGroup},
		{ID: "1100", Code: "1100", Name: "Current Assets", Type: TypeAsset, Level: LevelMain, ParentID: "1000"},
		{ID: "1110", Code: "1110", Name: "Cash and Equivalents", Type: TypeAsset, Level: LevelSub, ParentID: "1100"},
		{ID: "1111", Code: "1111", Name: "Cash on Hand", Type: TypeAsset, Level: LevelDetail, ParentID: "1110"},
		{ID: "1112", Code: "1112", Name: "Bank Checking", Type: TypeAsset, Level: LevelDetail, ParentID: "1110"},
		{ID: "1120", Code: "1120", Name: "Receivables", Type: TypeAsset, Level: LevelSub, ParentID: "1100"},
		{ID: "1121", Code: "1121", Name: "Accounts Receivable", Type: TypeAsset, Level: LevelDetail, ParentID: "1120"},

		{ID: "2000", Code: "2000", Name: "Liabilities", Type: TypeLiability, Level: LevelGroup},
		{ID: "2100", Code: "2100", Name: "Current Liabilities", Type: TypeLiability, Level: LevelMain, ParentID: "2000"},
		{ID: "2110", Code: "2110", Name: "Payables", Type: TypeLiability, Level: LevelSub, ParentID: "2100"},
		{ID: "2111", Code: "2111", Name: "Accounts Payable", Type: TypeLiability, Level: LevelDetail, ParentID: "2110"},

		{ID: "3000", Code: "3000", Name: "Equity", Type: TypeEquity, Level: LevelGroup},
		{ID: "3100", Code: "3100", Name: "Capital", Type: TypeEquity, Level: LevelMain, ParentID: "3000"},
		{ID: "3110", Code: "3110", Name: "Owner Capital", Type: TypeEquity, Level: LevelSub, ParentID: "3100"},
		{ID: "3111", Code: "3111", Name: "Paid-in Capital", Type: TypeEquity, Level: LevelDetail, ParentID: "3110"},
		{ID: "3112", Code: "3112", Name: "Retained Earnings", Type: TypeEquity, Level: LevelDetail, ParentID: "3110"},

		{ID: "4000", Code: "4000", Name: "Revenue", Type: TypeRevenue, Level: LevelGroup},
		{ID: "4100", Code: "4100", Name: "Operating Revenue", Type: TypeRevenue, Level: LevelMain, ParentID: "4000"},
		{ID: "4110", Code: "4110", Name: "Sales", Type: TypeRevenue, Level: LevelSub, ParentID: "4100"},
		{ID: "4111", Code: "4111", Name: "Product Sales", Type: TypeRevenue, Level: LevelDetail, ParentID: "4110"},
		{ID: "4112", Code: "4112", Name: "Service Revenue", Type: TypeRevenue, Level: LevelDetail, ParentID: "4110"},

		{ID: "5000", Code: "5000", Name: "Expenses", Type: TypeExpense, Level: LevelGroup},
		{ID: "5100", Code: "5100", Name: "Operating Expenses", Type: TypeExpense, Level: LevelMain, ParentID: "5000"},
		{ID: "5110", Code: "5110", Name: "General Expenses", Type: TypeExpense, Level: LevelSub, ParentID: "5100"},
		{ID: "5111", Code: "5111", Name: "Salaries", Type: TypeExpense, Level: LevelDetail, ParentID: "5110"},
		{ID: "5112", Code: "5112", Name: "Rent", Type: TypeExpense, Level: LevelDetail, ParentID: "5110"},
		{ID: "5113", Code: "5113", Name: "Office Supplies", Type: TypeExpense, Level: LevelDetail, ParentID: "5110"},
	}
}
