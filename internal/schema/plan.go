package schema

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Param is one child element of a schema command
type Param struct {
	Key   string
	Value interface{}
}

// Params is an ordered set of command children. Order is preserved on the wire.
type Params []Param

// Get returns the first value stored under key
func (p Params) Get(key string) (interface{}, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the params as a JSON object in declaration order
func (p Params) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, kv.Key, kv.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML keeps declaration order, which a plain map would lose
func (p Params) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, kv := range p {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: kv.Key}
		value := &yaml.Node{}
		if err := value.Encode(kv.Value); err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", kv.Key, err)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func writeMember(buf *bytes.Buffer, key string, value interface{}) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// Params renders the analyzer as its tokenizer and filter list
func (a *Analyzer) Params() Params {
	filters := make([]Params, len(a.Filters))
	copy(filters, a.Filters)
	return Params{
		{Key: "tokenizer", Value: a.Tokenizer},
		{Key: "filters", Value: filters},
	}
}

// Operation is a single schema mutation
type Operation struct {
	Command Command
	Params  Params
}

// Name returns the name child, or "" for commands that have none
func (o Operation) Name() string {
	v, _ := o.Params.Get("name")
	s, _ := v.(string)
	return s
}

// Type returns the type child of a field command
func (o Operation) Type() string {
	v, _ := o.Params.Get("type")
	s, _ := v.(string)
	return s
}

// Plan is an ordered list of schema mutations
type Plan struct {
	Operations []Operation
}

// ErrPlanOrder is returned by Validate when phases are interleaved
var ErrPlanOrder = fmt.Errorf("operations out of phase order")

// Validate checks that removals precede field types and field types precede fields
func (p *Plan) Validate() error {
	current := PhaseRemove
	for i, op := range p.Operations {
		phase := op.Command.Phase()
		if phase < current {
			return fmt.Errorf("%w: %s at position %d", ErrPlanOrder, op.Command, i)
		}
		current = phase
	}
	return nil
}

// Summary counts operations per phase and per command
type Summary struct {
	Removals   int             `json:"removals" yaml:"removals"`
	FieldTypes int             `json:"fieldTypes" yaml:"fieldTypes"`
	Fields     int             `json:"fields" yaml:"fields"`
	Commands   map[Command]int `json:"commands" yaml:"commands"`
}

// Total is the number of operations counted
func (s Summary) Total() int {
	return s.Removals + s.FieldTypes + s.Fields
}

// Summary tallies the plan
func (p *Plan) Summary() Summary {
	s := Summary{Commands: make(map[Command]int)}
	for _, op := range p.Operations {
		s.Commands[op.Command]++
		switch op.Command.Phase() {
		case PhaseRemove:
			s.Removals++
		case PhaseFieldType:
			s.FieldTypes++
		default:
			s.Fields++
		}
	}
	return s
}

// Filter returns the operations carrying the given command, in plan order
func (p *Plan) Filter(cmd Command) []Operation {
	var out []Operation
	for _, op := range p.Operations {
		if op.Command == cmd {
			out = append(out, op)
		}
	}
	return out
}

// Chunks splits the plan into consecutive batches of at most size operations.
// A size of zero or less yields a single batch.
func (p *Plan) Chunks(size int) [][]Operation {
	if len(p.Operations) == 0 {
		return nil
	}
	if size <= 0 || size >= len(p.Operations) {
		return [][]Operation{p.Operations}
	}
	var chunks [][]Operation
	for start := 0; start < len(p.Operations); start += size {
		end := start + size
		if end > len(p.Operations) {
			end = len(p.Operations)
		}
		chunks = append(chunks, p.Operations[start:end])
	}
	return chunks
}

// EncodeOperations writes a Schema API bulk request body. Each command becomes a
// key of one JSON object in order; the Schema API accepts repeated keys.
func EncodeOperations(ops []Operation) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, op := range ops {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, string(op.Command), op.Params); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the plan as a single Schema API request body
func (p *Plan) MarshalJSON() ([]byte, error) {
	return EncodeOperations(p.Operations)
}

// MarshalYAML renders the plan as an ordered list of single-key mappings
func (p *Plan) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode}
	for _, op := range p.Operations {
		item := &yaml.Node{}
		if err := item.Encode(Params{{Key: string(op.Command), Value: op.Params}}); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, item)
	}
	return node, nil
}

// Digest is the hex sha256 of the plan's request body
func (p *Plan) Digest() (string, error) {
	body, err := p.MarshalJSON()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
