package exclusion

import (
	"fmt"

	"github.com/blang/semver/v4"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/merr"
)

// Version 按属性的 since/until 区间过滤属性，区间两端均包含。
type Version struct {
	version semver.Version
}

var _ Strategy = (*Version)(nil)

func NewVersion(version string) (*Version, error) {
	v, err := semver.ParseTolerant(version)
	if err != nil {
		return nil, merr.WrapErrConfiguration(fmt.Sprintf("invalid version %q: %v", version, err))
	}
	return &Version{version: v}, nil
}

func (s *Version) ShouldSkipClass(*metadata.ClassMetadata, Context) bool {
	return false
}

// ShouldSkipProperty 中无法解析的 since/until 视为未声明。
func (s *Version) ShouldSkipProperty(prop *metadata.PropertyMetadata, _ Context) bool {
	if prop.Since != "" {
		if since, err := semver.ParseTolerant(prop.Since); err == nil && s.version.LT(since) {
			return true
		}
	}
	if prop.Until != "" {
		if until, err := semver.ParseTolerant(prop.Until); err == nil && s.version.GT(until) {
			return true
		}
	}
	return false
}
