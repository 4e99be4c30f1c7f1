package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	uploadDir = "./uploads" // Local directory for file storage
)

// UploadFileHandler accepts a multipart receipt/photo upload and stores it
// through the configured object store (GCS in production, local disk in
// development).
func UploadFileHandler(w http.ResponseWriter, r *http.Request) {
	// Parse the multipart form (max 50MB)
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		http.Error(w, "bad multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	folder := r.FormValue("folder")
	if folder == "" {
		folder = "receipts"
	}

	name := fmt.Sprintf("%s-%s", time.Now().Format("20060102-150405"), header.Filename)
	url, err := NewObjectStore().Store(r.Context(), data, folder, name)
	if err != nil {
		http.Error(w, "failed to store file: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"url":      url,
		"filename": name,
	})
}
