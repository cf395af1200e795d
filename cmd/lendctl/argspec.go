package main

import (
	"fmt"
	"strconv"
	"strings"

	"lendcore/core/args"
	"lendcore/crypto"
	"lendcore/native/fixedpoint"
)

// argList collects repeated --arg type:value flags in order.
type argList []string

func (a *argList) String() string { return strings.Join(*a, " ") }

func (a *argList) Set(v string) error {
	*a = append(*a, v)
	return nil
}

// encodeArgs turns type:value pairs into a contract argument list. Supported
// types are str, addr, u256, u64, bool and strs (comma separated).
func encodeArgs(specs []string) ([]byte, error) {
	b := args.New()
	for _, spec := range specs {
		kind, value, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("argument %q must be type:value", spec)
		}
		switch kind {
		case "str":
			b.AddString(value)
		case "addr":
			addr, err := crypto.DecodeAddress(value)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec, err)
			}
			b.AddAddress(addr)
		case "u256":
			v, err := fixedpoint.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec, err)
			}
			b.AddU256(v)
		case "u64":
			v, err := strconv.ParseUint(value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec, err)
			}
			b.AddU64(v)
		case "bool":
			v, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", spec, err)
			}
			b.AddBool(v)
		case "strs":
			var list []string
			if value != "" {
				list = strings.Split(value, ",")
			}
			b.AddStrings(list)
		default:
			return nil, fmt.Errorf("argument %q: unknown type %q", spec, kind)
		}
	}
	if b.Len() == 0 {
		return nil, nil
	}
	return b.Encode()
}

// decodeOutput renders out according to a comma separated type list.
func decodeOutput(out []byte, types string) ([]string, error) {
	if strings.TrimSpace(types) == "" {
		return nil, nil
	}
	r := args.NewReader(out)
	var rendered []string
	for _, kind := range strings.Split(types, ",") {
		switch strings.TrimSpace(kind) {
		case "str":
			rendered = append(rendered, r.String())
		case "addr":
			rendered = append(rendered, r.Address().String())
		case "u256":
			if v := r.U256(); v != nil {
				rendered = append(rendered, v.Dec())
			}
		case "u64":
			rendered = append(rendered, strconv.FormatUint(r.U64(), 10))
		case "bool":
			rendered = append(rendered, strconv.FormatBool(r.Bool()))
		case "strs":
			rendered = append(rendered, strings.Join(r.Strings(), ","))
		default:
			return nil, fmt.Errorf("unknown output type %q", kind)
		}
	}
	if err := r.Finish(); err != nil {
		return nil, err
	}
	return rendered, nil
}
