package aws

import (
	"errors"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/smithy-go"
)

// IsNotFound reports whether err means the requested role, policy or
// table does not exist.
func IsNotFound(err error) bool {
	var noSuchEntity *iamtypes.NoSuchEntityException
	if errors.As(err, &noSuchEntity) {
		return true
	}
	var notFound *ddbtypes.ResourceNotFoundException
	return errors.As(err, &notFound)
}

// IsAlreadyExists reports whether err means the resource was created by
// someone else first.
func IsAlreadyExists(err error) bool {
	var alreadyExists *iamtypes.EntityAlreadyExistsException
	return errors.As(err, &alreadyExists)
}

// ErrorCode extracts the remote API error code, or "" when err did not
// come from an AWS API call.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
