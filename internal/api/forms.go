package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/helpdesk-io/helpdesk-ce/internal/service"
)

// isMultipart reports whether the request carries a multipart form, the
// shape browser submission forms with attachments arrive in.
func isMultipart(c *gin.Context) bool {
	return c.ContentType() == "multipart/form-data"
}

// formUint parses a non-negative integer form field; absent means zero.
func formUint(c *gin.Context, field string) (uint, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		sendError(c, http.StatusBadRequest, field+" must be a non-negative integer")
		return 0, false
	}
	return uint(value), true
}

// formInt parses an integer form field; absent means zero.
func formInt(c *gin.Context, field string) (int, bool) {
	raw := c.PostForm(field)
	if raw == "" {
		return 0, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		sendError(c, http.StatusBadRequest, field+" must be an integer")
		return 0, false
	}
	return value, true
}

// formIntPtr parses an integer form field; absent means "not mentioned".
func formIntPtr(c *gin.Context, field string) (*int, bool) {
	raw, present := c.GetPostForm(field)
	if !present || raw == "" {
		return nil, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		sendError(c, http.StatusBadRequest, field+" must be an integer")
		return nil, false
	}
	return &value, true
}

// formOptionalRef parses a link field into the update tri-state: absent
// keeps the stored link, 0 clears it, anything else points it.
func formOptionalRef(c *gin.Context, field string) (service.OptionalRef, bool) {
	raw, present := c.GetPostForm(field)
	if !present || raw == "" {
		return service.OptionalRef{}, true
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		sendError(c, http.StatusBadRequest, field+" must be a non-negative integer")
		return service.OptionalRef{}, false
	}
	if value == 0 {
		return service.ClearRef(), true
	}
	return service.SetRef(uint(value)), true
}

// formCustomFields collects the custom_* form fields by their bare name.
func formCustomFields(c *gin.Context) map[string]string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	var fields map[string]string
	for key, values := range form.Value {
		name, found := strings.CutPrefix(key, "custom_")
		if !found || len(values) == 0 {
			continue
		}
		if fields == nil {
			fields = make(map[string]string)
		}
		fields[name] = values[0]
	}
	return fields
}

// readUploads drains the "files" parts of a multipart form. Path
// components a client smuggles into the filename are dropped.
func readUploads(c *gin.Context) ([]service.UploadedFile, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		sendError(c, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return nil, false
	}
	var files []service.UploadedFile
	for _, header := range form.File["files"] {
		part, err := header.Open()
		if err != nil {
			sendError(c, http.StatusBadRequest, "Unreadable upload: "+header.Filename)
			return nil, false
		}
		content, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			sendError(c, http.StatusBadRequest, "Unreadable upload: "+header.Filename)
			return nil, false
		}
		files = append(files, service.UploadedFile{
			Filename: filepath.Base(header.Filename),
			MimeType: header.Header.Get("Content-Type"),
			Content:  content,
		})
	}
	return files, true
}
