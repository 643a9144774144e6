// Package flagset exports the flag declarations of an argtree node to a
// spf13/pflag FlagSet so that other front ends can reuse them, and collects
// pflag results back into argtree.Values for Node.Invoke.
package flagset

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dzonerzy/go-argtree/argtree"
)

// Annotation keys set on exported flags.
const (
	AnnotationRequired = "argtree_required"
	AnnotationChoices  = "argtree_choices"
	AnnotationEnv      = "argtree_env"
)

// FromNode builds a FlagSet named after n holding its visible flags.
func FromNode(n *argtree.Node) (*pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(n.Name(), pflag.ContinueOnError)
	for _, f := range n.Flags() {
		if err := Add(fs, f); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Add defines f on fs. The first "--x" spelling becomes the pflag name
// (the flag name when there is none) and the first "-x" spelling the
// shorthand.
func Add(fs *pflag.FlagSet, f *argtree.Flag) error {
	long, short := spellings(f)
	if fs.Lookup(long) != nil {
		return fmt.Errorf("flagset: flag %q already defined", long)
	}
	if short != "" && fs.ShorthandLookup(short) != nil {
		short = ""
	}

	p, _ := f.Type.(argtree.Primitive)
	switch {
	case f.AllowMultiple || p == argtree.Array:
		fs.StringArrayP(long, short, stringSlice(f.Default), f.Description)
	case p == argtree.Boolean:
		d, _ := f.Default.(bool)
		fs.BoolP(long, short, d, f.Description)
	case p == argtree.Number:
		d, _ := f.Default.(float64)
		fs.Float64P(long, short, d, f.Description)
	default:
		var d string
		if f.Default != nil {
			d = fmt.Sprint(f.Default)
		}
		fs.StringP(long, short, d, f.Description)
	}

	if f.Mandatory && f.MandatoryIf == nil {
		if err := fs.SetAnnotation(long, AnnotationRequired, []string{"true"}); err != nil {
			return err
		}
	}
	if len(f.Enum) > 0 {
		if err := fs.SetAnnotation(long, AnnotationChoices, stringSlice(f.Enum)); err != nil {
			return err
		}
	}
	if len(f.Env) > 0 {
		if err := fs.SetAnnotation(long, AnnotationEnv, f.Env); err != nil {
			return err
		}
	}
	return nil
}

// Collect returns the flags of n that were set on fs, keyed by flag name.
// Values keep their argtree shape: strings collected by pflag are converted
// with the flag's type, element by element for repeated flags.
func Collect(fs *pflag.FlagSet, n *argtree.Node) (argtree.Values, error) {
	ctx := context.Background()
	out := argtree.Values{}
	for _, f := range n.Flags() {
		long, _ := spellings(f)
		pf := fs.Lookup(long)
		if pf == nil || !pf.Changed {
			continue
		}
		var (
			v   any
			err error
		)
		switch pf.Value.Type() {
		case "stringArray":
			var raw []string
			if raw, err = fs.GetStringArray(long); err == nil {
				v, err = convertAll(ctx, f.Type, raw)
			}
		case "bool":
			v, err = fs.GetBool(long)
		case "float64":
			v, err = fs.GetFloat64(long)
		default:
			var raw string
			if raw, err = fs.GetString(long); err == nil {
				v, err = argtree.Convert(ctx, f.Type, raw)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("flagset: %s: %w", long, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// convertAll converts repeated values; Array elements are flattened into one
// list.
func convertAll(ctx context.Context, t argtree.Type, raw []string) ([]any, error) {
	seq := make([]any, 0, len(raw))
	for _, s := range raw {
		v, err := argtree.Convert(ctx, t, s)
		if err != nil {
			return nil, err
		}
		if inner, ok := v.([]any); ok && argtree.IsArray(t) {
			seq = append(seq, inner...)
			continue
		}
		seq = append(seq, v)
	}
	return seq, nil
}

func spellings(f *argtree.Flag) (long, short string) {
	for _, o := range f.Options {
		switch {
		case long == "" && strings.HasPrefix(o, "--") && len(o) > 2:
			long = o[2:]
		case short == "" && len(o) == 2 && o[0] == '-' && o[1] != '-' && o[1] < 0x80:
			short = o[1:]
		}
	}
	if long == "" {
		long = f.Name
	}
	return long, short
}

func stringSlice(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, len(t))
		for i, e := range t {
			out[i] = fmt.Sprint(e)
		}
		return out
	default:
		return []string{fmt.Sprint(t)}
	}
}
