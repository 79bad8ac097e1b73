package hcl

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/confprobe/internal/confstate"
	"github.com/vk/confprobe/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// EntryBlock holds a key that cannot be written as a plain attribute:
//
//	entry "1BAD" { value = "x" }
const EntryBlock = "entry"

// reserved names are block types the document itself uses.
var reserved = map[string]bool{
	"defines":  true,
	EntryBlock: true,
}

// Writer is the HCL implementation of config.Writer. The document has the
// shape:
//
//	system { OS = "linux" }
//	project {
//	  CXX = "g++"
//	  defines { WORD_SIZE = "8" }
//	}
//	profile "debug" { CXXFLAGS = "-g" }
//
// Keys that are not identifiers, or that name one of the document's blocks,
// become entry blocks inside the map they belong to.
type Writer struct{}

// NewWriter creates a new HCL state writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Write renders snap to w. Keys are sorted, so equal states render equal bytes.
func (wr *Writer) Write(ctx context.Context, w io.Writer, snap confstate.Snapshot) error {
	logger := ctxlog.FromContext(ctx)

	f := hclwrite.NewEmptyFile()
	root := f.Body()

	writeMap(root.AppendNewBlock("system", nil).Body(), snap.System)
	root.AppendNewline()

	project := root.AppendNewBlock("project", nil).Body()
	writeMap(project, snap.Project)
	writeMap(project.AppendNewBlock("defines", nil).Body(), snap.Defines)

	for _, name := range snap.ProfileNames() {
		root.AppendNewline()
		writeMap(root.AppendNewBlock("profile", []string{name}).Body(), snap.Profiles[name])
	}

	n, err := f.WriteTo(w)
	if err != nil {
		return fmt.Errorf("failed to write configuration: %w", err)
	}
	logger.Debug("Configuration written.", "bytes", n)
	return nil
}

// writeMap emits identifier keys as attributes and every other key as a
// labelled entry block, so no key can collide with the document's own blocks.
func writeMap(body *hclwrite.Body, m confstate.Map) {
	var entries []string
	for _, key := range m.Keys() {
		if !hclsyntax.ValidIdentifier(key) || reserved[key] {
			entries = append(entries, key)
			continue
		}
		body.SetAttributeValue(key, cty.StringVal(m[key]))
	}
	for _, key := range entries {
		body.AppendNewBlock(EntryBlock, []string{key}).Body().SetAttributeValue("value", cty.StringVal(m[key]))
	}
}
