package config

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"shotty/pkg/aws"
	"shotty/pkg/colors"
)

// Prompt asks for the settings most users change, starting from base.
// Blank answers keep the value shown in brackets.
func Prompt(in io.Reader, out io.Writer, base *Config) (*Config, error) {
	c := *base
	reader := bufio.NewReader(in)

	ask := func(label, current string) (string, error) {
		fmt.Fprintf(out, "%s [%s]: ", label, current)
		answer, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			return current, nil
		}
		return answer, nil
	}

	fmt.Fprintln(out, colors.ColorHeader("\n=== shotty configuration ==="))

	var err error
	if c.Profile, err = ask("AWS profile", c.Profile); err != nil {
		return nil, err
	}

	region, err := ask("Region (full name or shortcode, blank for the profile's)", c.Region)
	if err != nil {
		return nil, err
	}
	if c.Region, err = aws.ResolveRegion(region); err != nil {
		return nil, err
	}

	if c.TagKey, err = ask("Project tag key", c.TagKey); err != nil {
		return nil, err
	}
	if c.Output, err = ask("Output format (csv/table)", c.Output); err != nil {
		return nil, err
	}

	if problems := Problems(&c); len(problems) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return &c, nil
}
