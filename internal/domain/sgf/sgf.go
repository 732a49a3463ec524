package sgf

import (
	"fmt"
	"strings"
)

// Node is one SGF node. Properties may repeat their values, e.g.
// AB[aa][bb].
type Node struct {
	Properties map[string][]string
}

// GameTree is a node sequence plus optional variation subtrees.
type GameTree struct {
	Nodes    []Node
	Children []*GameTree
}

// SGF is the root of an SGF document.
type SGF struct {
	Root *GameTree
}

// Root properties first, then move properties. Anything else is
// appended in map order.
var orderedKeys = []string{"FF", "GM", "SZ", "PB", "PW", "DT", "RE", "KM", "RU", "C", "AB", "AW", "AE", "B", "W"}

// Serialize renders the document as SGF text.
func Serialize(s *SGF) string {
	var builder strings.Builder
	builder.WriteString("(")
	serializeGameTree(&builder, s.Root)
	builder.WriteString(")")
	return builder.String()
}

func serializeGameTree(builder *strings.Builder, tree *GameTree) {
	for _, node := range tree.Nodes {
		builder.WriteString(";")

		used := make(map[string]bool)
		for _, key := range orderedKeys {
			if values, ok := node.Properties[key]; ok {
				used[key] = true
				writeProperty(builder, key, values)
			}
		}
		for key, values := range node.Properties {
			if !used[key] {
				writeProperty(builder, key, values)
			}
		}
	}

	for _, child := range tree.Children {
		builder.WriteString("(")
		serializeGameTree(builder, child)
		builder.WriteString(")")
	}
}

func writeProperty(builder *strings.Builder, key string, values []string) {
	for _, v := range values {
		builder.WriteString(fmt.Sprintf("%s[%s]", key, v))
	}
}
