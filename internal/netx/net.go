// Package netx holds small HTTP client helpers.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// UploadPresigned PUTs body to a presigned object storage URL. Any status
// other than 200 is an error that carries the response body.
func UploadPresigned(ctx context.Context, client *http.Client, url, contentType string, body io.Reader) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("upload failed: %s; body: %s", resp.Status, string(b))
	}
	return nil
}
