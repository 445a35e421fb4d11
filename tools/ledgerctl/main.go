package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func (c *client) do(method, path string, body any) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return data, resp.StatusCode, nil
}

func printJSON(data []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(out.String())
}

func main() {
	_ = godotenv.Load()

	api := &client{http: &http.Client{Timeout: 30 * time.Second}}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Command line client for the ledger service API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&api.baseURL, "api", envDefault("LEDGER_API", "http://localhost:8080"), "service base URL")
	rootCmd.PersistentFlags().StringVar(&api.token, "token", os.Getenv("LEDGER_TOKEN"), "bearer token")

	rootCmd.AddCommand(newAccountsCommand(api))
	rootCmd.AddCommand(newPeriodsCommand(api))
	rootCmd.AddCommand(newDocsCommand(api))
	rootCmd.AddCommand(newChecksCommand(api))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func newAccountsCommand(api *client) *cobra.Command {
	var parentID, level string
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Browse the chart of accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/accounts"
			query := []string{}
			if parentID != "" {
				query = append(query, "parent_id="+parentID)
			}
			if level != "" {
				query = append(query, "level="+level)
			}
			if len(query) > 0 {
				path += "?" + strings.Join(query, "&")
			}
			return run(api, http.MethodGet, path, nil)
		},
	}
	cmd.Flags().StringVar(&parentID, "parent", "", "parent account id")
	cmd.Flags().StringVar(&level, "level", "", "account level (group/main/sub/detail)")
	return cmd
}

func newPeriodsCommand(api *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Manage accounting periods",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodGet, "/api/v1/accounting-periods", nil)
		},
	})

	var name, start, end string
	create := &cobra.Command{
		Use:   "create",
		Short: "Open a new period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodPost, "/api/v1/accounting-periods", map[string]string{
				"name":       name,
				"start_date": start,
				"end_date":   end,
			})
		},
	}
	create.Flags().StringVar(&name, "name", "", "period name")
	create.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	create.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("start")
	_ = create.MarkFlagRequired("end")
	cmd.AddCommand(create)

	var closingDate, description string
	closeCmd := &cobra.Command{
		Use:   "close <period-id>",
		Short: "Run closing checks and close a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{}
			if closingDate != "" {
				body["closing_date"] = closingDate
			}
			if description != "" {
				body["description"] = description
			}
			return run(api, http.MethodPost, "/api/v1/accounting-periods/"+args[0]+"/close", body)
		},
	}
	closeCmd.Flags().StringVar(&closingDate, "date", "", "closing date (YYYY-MM-DD)")
	closeCmd.Flags().StringVar(&description, "description", "", "closing description")
	cmd.AddCommand(closeCmd)

	return cmd
}

func newDocsCommand(api *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage journal documents",
	}

	var periodID, status string
	list := &cobra.Command{
		Use:   "list",
		Short: "List documents in a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/journal-entries?period_id=" + periodID
			if status != "" {
				path += "&status=" + status
			}
			return run(api, http.MethodGet, path, nil)
		},
	}
	list.Flags().StringVar(&periodID, "period", "", "period id")
	list.Flags().StringVar(&status, "status", "", "status filter (draft/posted/cancelled)")
	_ = list.MarkFlagRequired("period")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodGet, "/api/v1/journal-entries/"+args[0], nil)
		},
	})

	var draftFile string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a draft document from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readJSONFile(draftFile)
			if err != nil {
				return err
			}
			return run(api, http.MethodPost, "/api/v1/journal-entries", payload)
		},
	}
	create.Flags().StringVar(&draftFile, "file", "", "path to draft JSON ('-' for stdin)")
	_ = create.MarkFlagRequired("file")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "post <document-id>",
		Short: "Post a draft document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodPost, "/api/v1/journal-entries/"+args[0]+"/post", map[string]string{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <document-id>",
		Short: "Cancel a draft document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodPost, "/api/v1/journal-entries/"+args[0]+"/cancel", map[string]string{})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "reverse <document-id>",
		Short: "Create and post a reversing document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodPost, "/api/v1/journal-entries/"+args[0]+"/reverse", map[string]string{})
		},
	})

	return cmd
}

func newChecksCommand(api *client) *cobra.Command {
	var periodID string
	cmd := &cobra.Command{
		Use:   "checks",
		Short: "Run closing checks without closing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(api, http.MethodPost, "/api/v1/closing-checks", map[string]string{"period_id": periodID})
		},
	}
	cmd.Flags().StringVar(&periodID, "period", "", "period id")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func run(api *client, method, path string, body any) error {
	data, status, err := api.do(method, path, body)
	if err != nil {
		return err
	}
	if len(data) > 0 {
		printJSON(data)
	}
	if status >= 400 {
		return fmt.Errorf("request failed with status %d", status)
	}
	return nil
}

func readJSONFile(path string) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%s: not valid JSON", path)
	}
	return json.RawMessage(data), nil
}
