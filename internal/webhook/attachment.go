package webhook

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var errNoCSV = errors.New("no CSV attachment found")

var csvContentTypes = map[string]bool{
	"text/csv":                    true,
	"application/csv":             true,
	"text/comma-separated-values": true,
}

// attachmentPrefix names Mailgun's attachment parts: attachment-1, attachment-2, ...
const attachmentPrefix = "attachment-"

// selectCSV returns the first CSV-looking attachment in ascending part order.
func selectCSV(form *multipart.Form) (*multipart.FileHeader, error) {
	if form == nil {
		return nil, errNoCSV
	}

	type part struct {
		n  int
		fh *multipart.FileHeader
	}
	var parts []part
	for key, headers := range form.File {
		if !strings.HasPrefix(key, attachmentPrefix) || len(headers) == 0 {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, attachmentPrefix))
		if err != nil {
			continue
		}
		parts = append(parts, part{n: n, fh: headers[0]})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].n < parts[j].n })

	for _, p := range parts {
		if looksLikeCSV(p.fh) {
			return p.fh, nil
		}
	}
	return nil, errNoCSV
}

func looksLikeCSV(fh *multipart.FileHeader) bool {
	if strings.EqualFold(filepath.Ext(fh.Filename), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return csvContentTypes[strings.ToLower(mediaType)]
}

// readAttachment loads the whole part into memory.
func readAttachment(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open attachment %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read attachment %q: %w", fh.Filename, err)
	}
	return data, nil
}
