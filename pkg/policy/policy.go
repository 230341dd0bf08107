package policy

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Version is the policy language version AWS expects on every document.
const Version = "2012-10-17"

// Document is an IAM policy document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is a single policy statement.
type Statement struct {
	Sid       string     `json:"Sid,omitempty"`
	Effect    string     `json:"Effect"`
	Principal *Principal `json:"Principal,omitempty"`
	Action    []string   `json:"Action"`
	Resource  []string   `json:"Resource,omitempty"`
}

// Principal identifies a service principal allowed to act on a statement.
type Principal struct {
	Service string `json:"Service"`
}

// LambdaTrust returns the trust document that lets the Lambda service
// assume the role.
func LambdaTrust() Document {
	return Document{
		Version: Version,
		Statement: []Statement{
			{
				Effect:    "Allow",
				Principal: &Principal{Service: "lambda.amazonaws.com"},
				Action:    []string{"sts:AssumeRole"},
			},
		},
	}
}

// TableAccess returns the inline document granting item-level CRUD plus
// Query, Scan and DescribeTable on one DynamoDB table and its indexes.
// Every resource ARN is fully qualified with the given account id and
// region, so all three inputs are required.
func TableAccess(accountID, region, tableName string) (Document, error) {
	if accountID == "" {
		return Document{}, fmt.Errorf("cannot build table access document without an account id")
	}
	if region == "" {
		return Document{}, fmt.Errorf("cannot build table access document without a region")
	}
	if tableName == "" {
		return Document{}, fmt.Errorf("cannot build table access document without a table name")
	}

	tableARN := fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", region, accountID, tableName)

	return Document{
		Version: Version,
		Statement: []Statement{
			{
				Sid:    "ItemsTableAccess",
				Effect: "Allow",
				Action: []string{
					"dynamodb:GetItem",
					"dynamodb:PutItem",
					"dynamodb:UpdateItem",
					"dynamodb:DeleteItem",
					"dynamodb:Query",
					"dynamodb:Scan",
					"dynamodb:DescribeTable",
				},
				Resource: []string{
					tableARN,
					tableARN + "/index/*",
				},
			},
		},
	}, nil
}

// JSON renders the document as the string form the IAM API accepts.
func (d Document) JSON() (string, error) {
	body, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(body), nil
}

// Equal reports whether two JSON policy documents are semantically the
// same, ignoring key order and whitespace. Unparseable input is never
// equal to anything.
func Equal(a, b string) bool {
	var av, bv any
	if err := json.Unmarshal([]byte(a), &av); err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(b), &bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}
