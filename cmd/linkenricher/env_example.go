package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

// envSections groups flags by the service they configure.
var envSections = []struct {
	title string
	flags []string
}{
	{"SPOTIFY", []string{"spotify-client-id", "spotify-client-secret", "spotify-market"}},
	{"APPLE MUSIC", []string{
		"apple-music-key-id", "apple-music-team-id", "apple-music-private-key-path", "apple-music-storefront",
	}},
	{"TRACK EVIDENCE", []string{"discogs-token", "musicbrainz-user-agent", "evidence-cache-size"}},
	{"MATCHING", []string{
		"album-threshold", "variant-threshold", "broad-threshold", "artist-threshold", "edition-suffixes",
	}},
	{"RATE LIMITING", []string{"rate-limit-delay", "throttle-mode"}},
	{"RUN", []string{"checkpoint-every", "metrics-addr", "log-level"}},
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# linkenricher configuration\n")
	content.WriteString("# Copy this file to .env and update with your values.\n")
	content.WriteString("# Every variable has a CLI flag equivalent: " + envPrefix + "_<FLAG> <-> --<flag>\n")

	for _, section := range envSections {
		content.WriteString("\n# " + section.title + "\n")
		for _, name := range section.flags {
			flag := cmd.PersistentFlags().Lookup(name)
			if flag == nil {
				continue
			}
			fmt.Fprintf(&content, "# %s\n%s=%s\n", flag.Usage, flagToEnvVar(name), envDefault(flag.DefValue))
		}
	}

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// envDefault renders a pflag default for a .env file; slices print as "[a,b]".
func envDefault(value string) string {
	return strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
}
