package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/httper/httper/packages/core/env"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new httper project",
	Long: `Initialize a new httper project in the current directory.

This creates:
  - .httper.yaml          - Configuration file
  - http-client.env.json  - Environments with their variables
  - example.http          - Example requests
  - hello.txt             - File uploaded by the multipart example

Examples:
  httper init
  httper init --force`,
	Args: cobra.NoArgs,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

const exampleRequests = `### health
GET {{host}}/health
Accept: application/json

### create-user
POST {{host}}/users
Content-Type: application/json
Authorization: Bearer {{token}}

{
  "id": "{{$uuid}}",
  "name": "Ada"
}

### search
GET {{host}}/users?q=ada&limit=10

### login
POST {{host}}/login
Content-Type: application/x-www-form-urlencoded

username=ada&password={{$env.HTTPER_PASSWORD}}

### upload
POST {{host}}/upload
Content-Type: multipart/form-data; boundary=boundary

--boundary
Content-Disposition: form-data; name="description"

A file uploaded by httper
--boundary
Content-Disposition: form-data; name="file"; filename="hello.txt"

< ./hello.txt
--boundary--
`

func initCommand(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, ".httper.yaml")
	envFile := filepath.Join(cwd, env.PublicEnvFile)
	exampleFile := filepath.Join(cwd, "example.http")
	uploadFile := filepath.Join(cwd, "hello.txt")

	if !forceInit {
		for _, f := range []string{configFile, envFile, exampleFile, uploadFile} {
			if _, err := os.Stat(f); err == nil {
				return usageError(fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	configContent := map[string]any{
		"defaultEnvironment": "dev",
		"timeout":            "30s",
		"followRedirects":    true,
		"maxRedirects":       10,
		"validateSSL":        true,
		"outputDir":          "responses",
		"headers": map[string]string{
			"User-Agent": "httper/" + version,
		},
	}
	configYAML, err := yaml.Marshal(configContent)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	envContent := env.EnvironmentMap{
		"dev":     {"host": "http://localhost:3000", "token": "dev-token"},
		"staging": {"host": "https://staging.api.example.com", "token": ""},
		"prod":    {"host": "https://api.example.com", "token": ""},
	}
	envJSON, err := json.MarshalIndent(envContent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode environments: %w", err)
	}

	files := []struct {
		path    string
		content []byte
	}{
		{configFile, configYAML},
		{envFile, append(envJSON, '\n')},
		{exampleFile, []byte(exampleRequests)},
		{uploadFile, []byte("hello from httper\n")},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.content, 0o644); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Base(f.path), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", f.path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nhttper project initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'httper example.http --name health' to send the first request.\n")

	return nil
}
