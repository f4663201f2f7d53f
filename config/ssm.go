package config

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// LoadSSM copies every parameter below parameterPath into config. The key is
// the upper-cased last path segment, so /foodgram/prod/secret_key becomes
// SECRET_KEY. Keys already present in config are left untouched.
func LoadSSM(ctx context.Context, client ssm.GetParametersByPathAPIClient, parameterPath string, config map[string]string) (int, error) {
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(parameterPath),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})

	loaded := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return loaded, fmt.Errorf("read parameters below %s: %w", parameterPath, err)
		}
		for _, parameter := range page.Parameters {
			key := strings.ToUpper(path.Base(aws.ToString(parameter.Name)))
			if key == "" || key == "." || key == "/" {
				continue
			}
			if _, exists := config[key]; exists {
				continue
			}
			config[key] = aws.ToString(parameter.Value)
			loaded++
		}
	}
	return loaded, nil
}
