package aws

import (
	"context"

	"shotty/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// DefaultProfile is the shared-config profile used when none is given.
const DefaultProfile = "shotty"

// Client wraps AWS service clients with common configuration
type Client struct {
	Config aws.Config
	EC2    *ec2.Client
	STS    *sts.Client
}

// ClientOptions configures the AWS client
type ClientOptions struct {
	Region  string
	Profile string
}

// NewClient creates a new AWS client with the specified options. An empty
// region falls back to the profile's region.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	loadOpts := []func(*config.LoadOptions) error{
		config.WithSharedConfigProfile(opts.Profile),
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewAWSError("failed to load AWS configuration", err).
			WithContext("profile", opts.Profile)
	}

	return NewClientFromConfig(cfg), nil
}

// NewClientFromConfig builds service clients from an already loaded config.
func NewClientFromConfig(cfg aws.Config) *Client {
	return &Client{
		Config: cfg,
		EC2:    ec2.NewFromConfig(cfg),
		STS:    sts.NewFromConfig(cfg),
	}
}

// GetCallerIdentity returns information about the current AWS credentials
func (c *Client) GetCallerIdentity(ctx context.Context) (*sts.GetCallerIdentityOutput, error) {
	output, err := c.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, errors.NewAWSError("failed to get caller identity", err)
	}
	return output, nil
}

// ValidateCredentials checks if the current AWS credentials are valid
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, err := c.GetCallerIdentity(ctx)
	return err
}
