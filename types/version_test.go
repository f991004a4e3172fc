package types //nolint:revive // types is a valid package name

import (
	"regexp"
	"strings"
	"testing"
)

func TestVersion_Format(t *testing.T) {
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	if !semverRegex.MatchString(Version) {
		t.Errorf("Version %q is not a valid semver", Version)
	}
}

func TestClientName_CarriesVersion(t *testing.T) {
	if !strings.HasSuffix(ClientName, "/"+Version) {
		t.Errorf("ClientName %q does not end with the version", ClientName)
	}
}
