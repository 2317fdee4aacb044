package endpoints

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/canteen-works/mensa/internal/api"
	"github.com/canteen-works/mensa/internal/sheet"
	"github.com/canteen-works/mensa/internal/svcctx"
)

// UploadResponse reports what an uploaded document produced.
type UploadResponse struct {
	File      string `json:"file"`
	Menus     int    `json:"menus"`
	RowIssues int    `json:"rowIssues"`
	Status    string `json:"status"`
}

// UploadEndpoint handles POST /api/upload with a multipart menu document.
//
// The document is saved into the scanned menu directory under a unique name
// and ingested immediately, so it survives restarts and later rescans like
// any other document.
type UploadEndpoint struct{}

var _ api.Endpoint = (*UploadEndpoint)(nil)

func (e *UploadEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/upload", e.handler
}

func (e *UploadEndpoint) RequiresInit() bool { return true }

func (e *UploadEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	sc := svcctx.ScannerFrom(r.Context())
	cm := svcctx.ConfigManagerFrom(r.Context())

	maxBytes := int64(10) << 20
	if cm != nil {
		maxBytes = int64(cm.Get().Server.MaxUploadMB) << 20
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse form: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	if !sheet.Supported(header.Filename) {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported document type %q", filepath.Ext(header.Filename)))
		return
	}

	// Unique prefix avoids clobbering an existing document with the same
	// name while keeping the original name visible.
	name := uuid.NewString()[:8] + "-" + filepath.Base(header.Filename)
	destPath := filepath.Join(sc.Dir(), name)

	dst, err := os.Create(destPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		os.Remove(destPath)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}
	if err := dst.Close(); err != nil {
		os.Remove(destPath)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to save file: %v", err))
		return
	}

	if err := sc.IngestFile(r.Context(), destPath); err != nil {
		// The saved file stays put so the failure can be inspected; the
		// record carries the error.
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("document not parseable: %v", err))
		return
	}

	st := svcctx.StoreFrom(r.Context())
	resp := UploadResponse{File: name, Status: "ingested"}
	for _, rec := range st.Sources() {
		if rec.Name == name {
			resp.Menus = rec.Menus
			resp.RowIssues = rec.RowIssues
			break
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *UploadEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a menu document (xlsx, xls or csv)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp UploadResponse
			if err := client.Upload(cmd.Context(), "/api/upload", "file", args[0], &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
