package accounts

// Level is the depth of an account in the chart hierarchy.
type Level string

const (
	LevelGroup  Level = "group"
	LevelMain   Level = "main"
	LevelSub    Level = "sub"
	LevelDetail Level = "detail"
)

// Type classifies an account for reporting and period totals.
type Type string

const (
	TypeAsset     Type = "asset"
	TypeLiability Type = "liability"
	TypeEquity    Type = "equity"
	TypeRevenue   Type = "revenue"
	TypeExpense   Type = "expense"
)

// Account is a node in the chart of accounts.
// Only detail-level accounts may be referenced by journal lines.
type Account struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Type     Type   `json:"type"`
	Level    Level  `json:"level"`
	ParentID string `json:"parent_id,omitempty"`
}

// Postable reports whether journal lines may reference this account.
func (a Account) Postable() bool {
	return a.Level == LevelDetail
}

// Validate checks account invariants.
func (a Account) Validate() error {
	if a.ID == "" {
		return ErrEmptyAccountID
	}
	if a.Code == "" {
		return ErrEmptyAccountCode
	}
	if a.Name == "" {
		return ErrEmptyAccountName
	}
	if !a.Type.Valid() {
		return ErrInvalidAccountType
	}
	if !a.Level.Valid() {
		return ErrInvalidAccountLevel
	}
	if a.Level == LevelGroup && a.ParentID != "" {
		return ErrGroupHasParent
	}
	if a.Level != LevelGroup && a.ParentID == "" {
		return ErrMissingParent
	}
	return nil
}

// Valid returns true when the type is supported.
func (t Type) Valid() bool {
	switch t {
	case TypeAsset, TypeLiability, TypeEquity, TypeRevenue, TypeExpense:
		return true
	default:
		return false
	}
}

// Valid returns true when the level is supported.
func (l Level) Valid() bool {
	switch l {
	case LevelGroup, LevelMain, LevelSub, LevelDetail:
		return true
	default:
		return false
	}
}

// ChildLevel returns the level one step below, or false at detail.
func (l Level) ChildLevel() (Level, bool) {
	switch l {
	case LevelGroup:
		return LevelMain, true
	case LevelMain:
		return LevelSub, true
	case LevelSub:
		return LevelDetail, true
	default:
		return "", false
	}
}

// NormalizeLevel validates and normalizes a level string.
func NormalizeLevel(value string) (Level, bool) {
	switch Level(value) {
	case LevelGroup, LevelMain, LevelSub, LevelDetail:
		return Level(value), true
	default:
		return "", false
	}
}
