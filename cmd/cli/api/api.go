// Package api is the thin HTTP client shared by the CLI commands.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/naokiys/emprecord/cmd/cli/config"
)

// Call sends method against path on the configured API and decodes the JSON
// response into out (skipped when out is nil). Non-2xx responses become errors
// carrying the response body.
func Call(method, path string, out interface{}) error {
	req, err := http.NewRequest(method, config.APIURL()+path, nil)
	if err != nil {
		return err
	}
	if token := config.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// Get is Call with GET.
func Get(path string, out interface{}) error {
	return Call(http.MethodGet, path, out)
}
