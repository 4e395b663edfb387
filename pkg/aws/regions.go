package aws

import (
	"sort"
	"strings"
)

// RegionMapping maps region shortcodes accepted by --region to AWS region names
var RegionMapping = map[string]string{
	"cac1":  "ca-central-1",
	"caw1":  "ca-west-1",
	"use1":  "us-east-1",
	"use2":  "us-east-2",
	"usw1":  "us-west-1",
	"usw2":  "us-west-2",
	"euw1":  "eu-west-1",
	"euw2":  "eu-west-2",
	"euw3":  "eu-west-3",
	"euc1":  "eu-central-1",
	"eun1":  "eu-north-1",
	"aps1":  "ap-south-1",
	"apse1": "ap-southeast-1",
	"apse2": "ap-southeast-2",
	"apne1": "ap-northeast-1",
	"apne2": "ap-northeast-2",
	"sae1":  "sa-east-1",
}

// ResolveRegion turns a shortcode or full region name into a region name.
// An empty input stays empty so the profile's region applies.
func ResolveRegion(input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "", nil
	}
	return ValidateRegionInput(input)
}

// GetRegionCode returns the shortcode for an AWS region name, or the name
// itself when there is none.
func GetRegionCode(awsRegion string) string {
	for code, region := range RegionMapping {
		if region == awsRegion {
			return code
		}
	}
	return awsRegion
}

// SupportedShortcodes lists every shortcode in sorted order.
func SupportedShortcodes() []string {
	codes := make([]string, 0, len(RegionMapping))
	for code := range RegionMapping {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
