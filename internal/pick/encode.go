package pick

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeFormat is how closed timestamps are written in reports.
const TimeFormat = time.RFC3339

// MarshalYAML encodes the report as a mapping whose keys keep section order.
func (r *Report) MarshalYAML() (interface{}, error) {
	root := mappingNode()
	for _, s := range r.Sections {
		appendPair(root, s.Name, sectionNode(s))
	}
	return root, nil
}

func sectionNode(s Section) *yaml.Node {
	switch {
	case len(s.Groups) > 0:
		node := mappingNode()
		for _, g := range s.Groups {
			appendPair(node, g.Repository, entriesNode(g.Entries))
		}
		return node
	case len(s.Bugs) > 0:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		withAssignee := s.Name == SectionBugsMissingURL
		for _, b := range s.Bugs {
			item := mappingNode()
			appendPair(item, "id", intNode(b.ID))
			if withAssignee {
				appendPair(item, "assigned_to", strNode(b.AssignedTo))
			}
			node.Content = append(node.Content, item)
		}
		return node
	default:
		return entriesNode(s.Entries)
	}
}

func entriesNode(entries []Entry) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, e := range entries {
		item := mappingNode()
		if e.Closed != nil {
			appendPair(item, "closed", strNode(e.Closed.UTC().Format(TimeFormat)))
		} else {
			appendPair(item, "closed", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"})
		}

		redmine := mappingNode()
		appendPair(redmine, "id", intNode(e.Redmine.ID))
		appendPair(redmine, "subject", strNode(e.Redmine.Subject))
		appendPair(item, "redmine", redmine)

		if e.Bugzilla != nil {
			bz := mappingNode()
			appendPair(bz, "id", strNode(e.Bugzilla.ID))
			appendPair(bz, "summary", strNode(e.Bugzilla.Summary))
			appendPair(item, "bugzilla", bz)
		}
		if e.Commit != "" {
			appendPair(item, "commit", strNode(e.Commit))
		}
		node.Content = append(node.Content, item)
	}
	return node
}

func mappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(v)}
}

// orderedObject is a JSON object that keeps its keys in insertion order.
type orderedObject []field

type field struct {
	key   string
	value any
}

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the report with the same shape and key order as
// the YAML form.
func (r *Report) MarshalJSON() ([]byte, error) {
	root := make(orderedObject, 0, len(r.Sections))
	for _, s := range r.Sections {
		root = append(root, field{s.Name, sectionJSON(s)})
	}
	return json.Marshal(root)
}

func sectionJSON(s Section) any {
	switch {
	case len(s.Groups) > 0:
		groups := make(orderedObject, 0, len(s.Groups))
		for _, g := range s.Groups {
			groups = append(groups, field{g.Repository, entriesJSON(g.Entries)})
		}
		return groups
	case len(s.Bugs) > 0:
		withAssignee := s.Name == SectionBugsMissingURL
		bugs := make([]orderedObject, 0, len(s.Bugs))
		for _, b := range s.Bugs {
			obj := orderedObject{{"id", b.ID}}
			if withAssignee {
				obj = append(obj, field{"assigned_to", b.AssignedTo})
			}
			bugs = append(bugs, obj)
		}
		return bugs
	default:
		return entriesJSON(s.Entries)
	}
}

func entriesJSON(entries []Entry) []orderedObject {
	out := make([]orderedObject, 0, len(entries))
	for _, e := range entries {
		var closed any
		if e.Closed != nil {
			closed = e.Closed.UTC().Format(TimeFormat)
		}
		obj := orderedObject{
			{"closed", closed},
			{"redmine", orderedObject{{"id", e.Redmine.ID}, {"subject", e.Redmine.Subject}}},
		}
		if e.Bugzilla != nil {
			obj = append(obj, field{"bugzilla", orderedObject{{"id", e.Bugzilla.ID}, {"summary", e.Bugzilla.Summary}}})
		}
		if e.Commit != "" {
			obj = append(obj, field{"commit", e.Commit})
		}
		out = append(out, obj)
	}
	return out
}
