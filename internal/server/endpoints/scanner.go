package endpoints

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/scanner"
	"github.com/canteen-works/mensa/internal/store"
	"github.com/canteen-works/mensa/internal/svcctx"
)

// ScanResponse reports the result of a directory rescan.
type ScanResponse struct {
	Ingested int    `json:"ingested"`
	Status   string `json:"status"`
}

// ScanEndpoint handles POST /api/scanner/scan, rescanning the menu
// directory synchronously.
type ScanEndpoint struct{}

var _ api.Endpoint = (*ScanEndpoint)(nil)

func (e *ScanEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/scanner/scan", e.handler
}

func (e *ScanEndpoint) RequiresInit() bool { return true }

func (e *ScanEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sc := svcctx.ScannerFrom(r.Context())
	n, err := sc.Scan(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("scan failed: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, ScanResponse{Ingested: n, Status: "ok"})
}

func (e *ScanEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Rescan the menu directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ScanResponse
			if err := client.Post(cmd.Context(), "/api/scanner/scan", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ScannerStatusResponse combines scanner state with per-document records.
type ScannerStatusResponse struct {
	Scanner scanner.Status       `json:"scanner"`
	Sources []store.SourceRecord `json:"sources"`
}

// ScannerStatusEndpoint handles GET /api/scanner/status.
type ScannerStatusEndpoint struct{}

var _ api.Endpoint = (*ScannerStatusEndpoint)(nil)

func (e *ScannerStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/scanner/status", e.handler
}

func (e *ScannerStatusEndpoint) RequiresInit() bool { return true }

func (e *ScannerStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sc := svcctx.ScannerFrom(r.Context())
	st := svcctx.StoreFrom(r.Context())

	sources := st.Sources()
	if sources == nil {
		sources = []store.SourceRecord{}
	}
	writeJSON(w, http.StatusOK, ScannerStatusResponse{
		Scanner: sc.Status(),
		Sources: sources,
	})
}

func (e *ScannerStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scanner state and ingested documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ScannerStatusResponse
			if err := client.Get(cmd.Context(), "/api/scanner/status", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
