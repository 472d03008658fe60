// Command smoke exercises a running hub end to end: token issuance,
// affiliation search, plan submission and the authorization gate on retrieval.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	base := os.Getenv("DMPHUB_SMOKE_ADDR")
	if base == "" {
		base = "http://localhost:8080"
	}
	clientID := os.Getenv("DMPHUB_SMOKE_CLIENT_ID")
	clientSecret := os.Getenv("DMPHUB_SMOKE_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("DMPHUB_SMOKE_CLIENT_ID and DMPHUB_SMOKE_CLIENT_SECRET are required")
	}

	hc := &http.Client{Timeout: 10 * time.Second}

	if err := get(hc, base+"/healthz", "", nil); err != nil {
		log.Fatalf("healthz: %v", err)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
	}
	err := post(hc, base+"/v1/token", "", map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     clientID,
		"client_secret": clientSecret,
	}, &tok)
	if err != nil {
		log.Fatalf("token: %v", err)
	}
	if tok.AccessToken == "" {
		log.Fatal("token: empty access_token")
	}

	var search struct {
		Total int `json:"total"`
	}
	if err := get(hc, base+"/v1/affiliations?search=university", tok.AccessToken, &search); err != nil {
		log.Fatalf("affiliations: %v", err)
	}

	var plan struct {
		ID string `json:"id"`
	}
	title := fmt.Sprintf("Smoke Plan %d", time.Now().Unix())
	err = post(hc, base+"/v1/dmps", tok.AccessToken, map[string]any{
		"title": title,
	}, &plan)
	if err != nil {
		log.Fatalf("create dmp: %v", err)
	}
	if plan.ID == "" {
		log.Fatal("create dmp: empty id")
	}

	var fetched struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := get(hc, base+"/v1/dmps/"+plan.ID, tok.AccessToken, &fetched); err != nil {
		log.Fatalf("fetch dmp: %v", err)
	}
	if fetched.Title != title {
		log.Fatalf("fetch dmp: title mismatch %q != %q", fetched.Title, title)
	}

	// Without a token the plan must be refused.
	if err := get(hc, base+"/v1/dmps/"+plan.ID, "", nil); err == nil {
		log.Fatal("expected unauthenticated fetch to fail")
	}

	fmt.Printf("✅ dmphub smoke test passed: dmp=%s affiliations=%d\n", plan.ID, search.Total)
}

func post(hc *http.Client, url, bearer string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return do(hc, req, out)
}

func get(hc *http.Client, url, bearer string, out any) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return do(hc, req, out)
}

func do(hc *http.Client, req *http.Request, out any) error {
	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, payload)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}
