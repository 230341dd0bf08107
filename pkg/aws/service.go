package aws

import (
	"context"
	"fmt"
	"net/url"
	"os"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ClientConfig selects how SDK clients are built. The zero value uses
// the default credential chain, the ambient region, and real AWS
// endpoints.
type ClientConfig struct {
	Profile     string
	Region      string
	EndpointURL string
}

type configLoader interface {
	LoadDefaultConfig(ctx context.Context, optFns ...func(*config.LoadOptions) error) (awsv2.Config, error)
}

type defaultConfigLoader struct{}

func (defaultConfigLoader) LoadDefaultConfig(ctx context.Context, optFns ...func(*config.LoadOptions) error) (awsv2.Config, error) {
	return config.LoadDefaultConfig(ctx, optFns...)
}

type stsAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

type stsClientFactory interface {
	NewFromConfig(cfg awsv2.Config, endpointURL string) stsAPI
}

type defaultSTSClientFactory struct{}

func (defaultSTSClientFactory) NewFromConfig(cfg awsv2.Config, endpointURL string) stsAPI {
	return sts.NewFromConfig(cfg, func(o *sts.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = awsv2.String(endpointURL)
		}
	})
}

type iamAPI interface {
	GetRole(ctx context.Context, params *iam.GetRoleInput, optFns ...func(*iam.Options)) (*iam.GetRoleOutput, error)
	CreateRole(ctx context.Context, params *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	DeleteRole(ctx context.Context, params *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
	ListAttachedRolePolicies(ctx context.Context, params *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
	AttachRolePolicy(ctx context.Context, params *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	DetachRolePolicy(ctx context.Context, params *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
	PutRolePolicy(ctx context.Context, params *iam.PutRolePolicyInput, optFns ...func(*iam.Options)) (*iam.PutRolePolicyOutput, error)
	GetRolePolicy(ctx context.Context, params *iam.GetRolePolicyInput, optFns ...func(*iam.Options)) (*iam.GetRolePolicyOutput, error)
	DeleteRolePolicy(ctx context.Context, params *iam.DeleteRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteRolePolicyOutput, error)
}

type iamClientFactory interface {
	NewFromConfig(cfg awsv2.Config, endpointURL string) iamAPI
}

type defaultIAMClientFactory struct{}

func (defaultIAMClientFactory) NewFromConfig(cfg awsv2.Config, endpointURL string) iamAPI {
	return iam.NewFromConfig(cfg, func(o *iam.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = awsv2.String(endpointURL)
		}
	})
}

type dynamoAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type dynamoClientFactory interface {
	NewFromConfig(cfg awsv2.Config, endpointURL string) dynamoAPI
}

type defaultDynamoClientFactory struct{}

func (defaultDynamoClientFactory) NewFromConfig(cfg awsv2.Config, endpointURL string) dynamoAPI {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = awsv2.String(endpointURL)
		}
	})
}

// SDKService is the concrete implementation backed by AWS SDK v2.
type SDKService struct {
	cfg           ClientConfig
	loader        configLoader
	stsFactory    stsClientFactory
	iamFactory    iamClientFactory
	dynamoFactory dynamoClientFactory
}

// NewService creates an AWS service implementation that uses AWS SDK v2.
func NewService(cfg ClientConfig) *SDKService {
	return newSDKService(cfg, defaultConfigLoader{}, defaultSTSClientFactory{}, defaultIAMClientFactory{}, defaultDynamoClientFactory{})
}

func newSDKService(cfg ClientConfig, loader configLoader, stsFactory stsClientFactory, iamFactory iamClientFactory, dynamoFactory dynamoClientFactory) *SDKService {
	return &SDKService{
		cfg:           cfg,
		loader:        loader,
		stsFactory:    stsFactory,
		iamFactory:    iamFactory,
		dynamoFactory: dynamoFactory,
	}
}

func (s *SDKService) loadConfig(ctx context.Context) (awsv2.Config, error) {
	var opts []func(*config.LoadOptions) error
	if s.cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(s.cfg.Profile))
	}
	if s.cfg.Region != "" {
		opts = append(opts, config.WithRegion(s.cfg.Region))
	}
	if s.cfg.EndpointURL != "" {
		// Local stacks accept any credentials but the SDK still insists
		// on having some.
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			envOrDefault("AWS_ACCESS_KEY_ID", "dummy"),
			envOrDefault("AWS_SECRET_ACCESS_KEY", "dummy"),
			"",
		)))
	}

	awsCfg, err := s.loader.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awsv2.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func (s *SDKService) iamClient(ctx context.Context) (iamAPI, error) {
	awsCfg, err := s.loadConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s.iamFactory.NewFromConfig(awsCfg, s.cfg.EndpointURL), nil
}

func (s *SDKService) GetCallerIdentity(ctx context.Context) (Identity, error) {
	awsCfg, err := s.loadConfig(ctx)
	if err != nil {
		return Identity{}, err
	}

	out, err := s.stsFactory.NewFromConfig(awsCfg, s.cfg.EndpointURL).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return Identity{}, err
	}

	identity := Identity{
		AccountID: awsv2.ToString(out.Account),
		Arn:       awsv2.ToString(out.Arn),
	}
	if identity.AccountID == "" {
		return Identity{}, fmt.Errorf("STS GetCallerIdentity returned an empty account id")
	}
	return identity, nil
}

func (s *SDKService) GetRole(ctx context.Context, name string) (Role, error) {
	client, err := s.iamClient(ctx)
	if err != nil {
		return Role{}, err
	}

	out, err := client.GetRole(ctx, &iam.GetRoleInput{RoleName: awsv2.String(name)})
	if err != nil {
		return Role{}, err
	}
	if out.Role == nil {
		return Role{}, fmt.Errorf("IAM GetRole returned no role for %q", name)
	}

	return roleFromSDK(out.Role.RoleName, out.Role.Arn, out.Role.AssumeRolePolicyDocument)
}

func (s *SDKService) CreateRole(ctx context.Context, name, trustDocument string) (Role, error) {
	client, err := s.iamClient(ctx)
	if err != nil {
		return Role{}, err
	}

	out, err := client.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 awsv2.String(name),
		AssumeRolePolicyDocument: awsv2.String(trustDocument),
		Description:              awsv2.String("Execution role for the Items exercise Lambda functions"),
	})
	if err != nil {
		return Role{}, err
	}
	if out.Role == nil {
		return Role{}, fmt.Errorf("IAM CreateRole returned no role for %q", name)
	}

	return roleFromSDK(out.Role.RoleName, out.Role.Arn, out.Role.AssumeRolePolicyDocument)
}

func (s *SDKService) DeleteRole(ctx context.Context, name string) error {
	client, err := s.iamClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: awsv2.String(name)})
	return err
}

func (s *SDKService) ListAttachedPolicies(ctx context.Context, roleName string) ([]AttachedPolicy, error) {
	client, err := s.iamClient(ctx)
	if err != nil {
		return nil, err
	}

	var attached []AttachedPolicy
	var marker *string
	for {
		out, err := client.ListAttachedRolePolicies(ctx, &iam.ListAttachedRolePoliciesInput{
			RoleName: awsv2.String(roleName),
			Marker:   marker,
		})
		if err != nil {
			return nil, err
		}
		for _, p := range out.AttachedPolicies {
			attached = append(attached, AttachedPolicy{
				Name: awsv2.ToString(p.PolicyName),
				Arn:  awsv2.ToString(p.PolicyArn),
			})
		}
		if !out.IsTruncated {
			return attached, nil
		}
		marker = out.Marker
	}
}

func (s *SDKService) AttachPolicy(ctx context.Context, roleName, policyArn string) error {
	client, err := s.iamClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  awsv2.String(roleName),
		PolicyArn: awsv2.String(policyArn),
	})
	return err
}

func (s *SDKService) DetachPolicy(ctx context.Context, roleName, policyArn string) error {
	client, err := s.iamClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  awsv2.String(roleName),
		PolicyArn: awsv2.String(policyArn),
	})
	return err
}

func (s *SDKService) PutInlinePolicy(ctx context.Context, roleName, policyName, document string) error {
	client, err := s.iamClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.PutRolePolicy(ctx, &iam.PutRolePolicyInput{
		RoleName:       awsv2.String(roleName),
		PolicyName:     awsv2.String(policyName),
		PolicyDocument: awsv2.String(document),
	})
	return err
}

func (s *SDKService) GetInlinePolicy(ctx context.Context, roleName, policyName string) (string, error) {
	client, err := s.iamClient(ctx)
	if err != nil {
		return "", err
	}

	out, err := client.GetRolePolicy(ctx, &iam.GetRolePolicyInput{
		RoleName:   awsv2.String(roleName),
		PolicyName: awsv2.String(policyName),
	})
	if err != nil {
		return "", err
	}

	return decodeDocument(awsv2.ToString(out.PolicyDocument))
}

func (s *SDKService) DeleteInlinePolicy(ctx context.Context, roleName, policyName string) error {
	client, err := s.iamClient(ctx)
	if err != nil {
		return err
	}

	_, err = client.DeleteRolePolicy(ctx, &iam.DeleteRolePolicyInput{
		RoleName:   awsv2.String(roleName),
		PolicyName: awsv2.String(policyName),
	})
	return err
}

func (s *SDKService) DescribeTable(ctx context.Context, name string) (Table, error) {
	awsCfg, err := s.loadConfig(ctx)
	if err != nil {
		return Table{}, err
	}

	out, err := s.dynamoFactory.NewFromConfig(awsCfg, s.cfg.EndpointURL).DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: awsv2.String(name),
	})
	if err != nil {
		return Table{}, err
	}
	if out.Table == nil {
		return Table{}, fmt.Errorf("DynamoDB DescribeTable returned no table for %q", name)
	}

	return Table{
		Name:      awsv2.ToString(out.Table.TableName),
		Status:    string(out.Table.TableStatus),
		ItemCount: awsv2.ToInt64(out.Table.ItemCount),
	}, nil
}

func roleFromSDK(name, arn, trustDocument *string) (Role, error) {
	trust, err := decodeDocument(awsv2.ToString(trustDocument))
	if err != nil {
		return Role{}, err
	}
	return Role{
		Name:          awsv2.ToString(name),
		Arn:           awsv2.ToString(arn),
		TrustDocument: trust,
	}, nil
}

// decodeDocument reverses the URL encoding IAM applies to policy
// documents it returns.
func decodeDocument(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode policy document: %w", err)
	}
	return decoded, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
