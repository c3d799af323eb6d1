package config

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterSource is the subset of the SSM client used to read parameters
type ParameterSource interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM merges the parameters stored under SSM_PARAMETER_PATH into config.
// The last segment of each parameter name becomes the key, and SSM values win over the environment.
// Nothing happens when the path is not set.
func LoadSSM(ctx context.Context, config map[string]string) error {
	paramPath := GetString(config, "SSM_PARAMETER_PATH", "")
	if paramPath == "" {
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}
	return MergeParameters(ctx, ssm.NewFromConfig(awsCfg), paramPath, config)
}

// MergeParameters pages through every decrypted parameter below paramPath
func MergeParameters(ctx context.Context, source ParameterSource, paramPath string, config map[string]string) error {
	paginator := ssm.NewGetParametersByPathPaginator(source, &ssm.GetParametersByPathInput{
		Path:           aws.String(paramPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, param := range page.Parameters {
			name := aws.ToString(param.Name)
			if name == "" {
				continue
			}
			config[path.Base(name)] = aws.ToString(param.Value)
		}
	}
	return nil
}
