package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lk2023060901/graph-serializer/pkg/serializer/metadata"
)

func TestToSnakeCase(t *testing.T) {
	cases := map[string]string{
		"Name":        "name",
		"UserName":    "user_name",
		"ID":          "id",
		"UserID":      "user_id",
		"HTTPServer":  "http_server",
		"already_ok":  "already_ok",
		"Address2":    "address2",
		"Address2Zip": "address2_zip",
		"":            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToSnakeCase(in), in)
	}
}

func TestStrategies(t *testing.T) {
	plain := &metadata.PropertyMetadata{Name: "FirstName"}
	named := &metadata.PropertyMetadata{Name: "FirstName", SerializedName: "given"}

	assert.Equal(t, "FirstName", Identical{}.TranslateName(plain))
	assert.Equal(t, "first_name", SnakeCase{}.TranslateName(plain))
	assert.Equal(t, "first_name", Default().TranslateName(plain))
	assert.Equal(t, "given", Default().TranslateName(named))
	assert.Equal(t, "given", SerializedName{Delegate: Identical{}}.TranslateName(named))
}
