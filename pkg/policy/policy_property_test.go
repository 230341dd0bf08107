package policy

import (
	"encoding/json"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// For any well-formed account, region and table name, the rendered
// access document carries exactly one statement with exactly two
// resources: the table ARN and its index wildcard, each embedding the
// region and account exactly once.
func TestTableAccessRendering(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		accountID := rapid.StringMatching(`[0-9]{12}`).Draw(t, "accountID")
		region := rapid.StringMatching(`[a-z]{2}-[a-z]{4,9}-[1-9]`).Draw(t, "region")
		// Digits are excluded so a generated name can never collide with
		// the account id when counting interpolations.
		tableName := rapid.StringMatching(`[A-Za-z][A-Za-z_.-]{0,30}`).Draw(t, "tableName")

		doc, err := TableAccess(accountID, region, tableName)
		if err != nil {
			t.Fatalf("TableAccess failed: %v", err)
		}

		if len(doc.Statement) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(doc.Statement))
		}
		resources := doc.Statement[0].Resource
		if len(resources) != 2 {
			t.Fatalf("expected 2 resources, got %v", resources)
		}

		prefix := "arn:aws:dynamodb:" + region + ":" + accountID + ":table/" + tableName
		if resources[0] != prefix {
			t.Fatalf("unexpected table ARN: %q", resources[0])
		}
		if resources[1] != prefix+"/index/*" {
			t.Fatalf("unexpected index ARN: %q", resources[1])
		}
		for _, arn := range resources {
			if strings.Count(arn, accountID) != 1 {
				t.Fatalf("account id interpolated %d times in %q", strings.Count(arn, accountID), arn)
			}
		}

		body, err := doc.JSON()
		if err != nil {
			t.Fatalf("JSON failed: %v", err)
		}
		var parsed Document
		if err := json.Unmarshal([]byte(body), &parsed); err != nil {
			t.Fatalf("rendered document does not parse: %v", err)
		}
		if !Equal(body, body) {
			t.Fatalf("document not equal to itself: %s", body)
		}
	})
}
