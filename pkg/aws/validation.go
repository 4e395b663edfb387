package aws

import (
	"fmt"
	"strings"
)

var validRegionPrefixes = map[string]bool{
	"us": true, "eu": true, "ap": true, "ca": true, "sa": true,
	"me": true, "af": true, "il": true, "mx": true, "cn": true, "us-gov": true,
}

var validRegionDirections = map[string]bool{
	"east": true, "west": true, "north": true, "south": true, "central": true,
	"northeast": true, "southeast": true, "northwest": true, "southwest": true,
}

// IsValidAWSRegion validates if a string is a properly formatted AWS region.
// Valid formats:
//   - Standard: xx-xxxx-n (e.g., us-east-1, ca-central-1)
//   - GovCloud: us-gov-xxxx-n (e.g., us-gov-east-1)
func IsValidAWSRegion(region string) bool {
	parts := strings.Split(region, "-")

	if len(parts) == 4 && parts[0] == "us" && parts[1] == "gov" {
		parts = []string{"us-gov", parts[2], parts[3]}
		if parts[1] != "east" && parts[1] != "west" {
			return false
		}
	}

	if len(parts) != 3 || !validRegionPrefixes[parts[0]] || !validRegionDirections[parts[1]] {
		return false
	}

	// Region numbers are 1-99
	number := parts[2]
	if len(number) < 1 || len(number) > 2 || number == "0" || number[0] == '0' {
		return false
	}
	for _, char := range number {
		if char < '0' || char > '9' {
			return false
		}
	}

	return true
}

// IsInstanceID checks if a string matches the AWS instance ID pattern
// i-[0-9a-f]{8,17}
func IsInstanceID(identifier string) bool {
	if len(identifier) < 10 || len(identifier) > 19 {
		return false
	}

	if !strings.HasPrefix(identifier, "i-") {
		return false
	}

	for _, char := range identifier[2:] {
		if !((char >= '0' && char <= '9') || (char >= 'a' && char <= 'f')) {
			return false
		}
	}

	return true
}

// ValidateInstanceID returns a *ValidationError when id is not a well formed
// instance ID.
func ValidateInstanceID(id string) error {
	if IsInstanceID(id) {
		return nil
	}
	return &ValidationError{
		Field:   "instance",
		Value:   id,
		Message: "must look like i-0123456789abcdef0",
	}
}

// ValidateRegionInput validates and normalizes region input.
// It accepts either a shortcode (e.g., cac1) or a full region name (e.g., ca-central-1).
func ValidateRegionInput(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", &ValidationError{Field: "region", Value: input, Message: "region cannot be empty"}
	}

	if fullRegion, exists := RegionMapping[strings.ToLower(input)]; exists {
		return fullRegion, nil
	}

	if IsValidAWSRegion(input) {
		return input, nil
	}

	return "", &ValidationError{
		Field:   "region",
		Value:   input,
		Message: "must be a valid AWS region (e.g., us-east-1, ca-central-1) or shortcode (e.g., use1, cac1)",
	}
}

// ValidationError represents a validation error with details
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s '%s' is invalid: %s", e.Field, e.Value, e.Message)
}
