package exclusion

import (
	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
	"github.com/lk2023060901/graph-serializer/pkg/util/typeutil"
)

// Groups 只保留属于任一激活分组的属性，未声明分组的属性属于 Default 分组。
type Groups struct {
	active typeutil.Set[string]
}

var _ Strategy = (*Groups)(nil)

// NewGroups 创建分组策略，未指定分组时激活 Default。
func NewGroups(groups ...string) *Groups {
	if len(groups) == 0 {
		groups = []string{metadata.DefaultGroup}
	}
	return &Groups{active: typeutil.NewSet(groups...)}
}

func (g *Groups) ShouldSkipClass(*metadata.ClassMetadata, Context) bool {
	return false
}

func (g *Groups) ShouldSkipProperty(prop *metadata.PropertyMetadata, _ Context) bool {
	if len(prop.Groups) == 0 {
		return !g.active.Contain(metadata.DefaultGroup)
	}
	return !g.active.ContainAny(prop.Groups...)
}

// Active 返回按字典序排列的激活分组。
func (g *Groups) Active() []string {
	return typeutil.SortedOf(g.active)
}
