// Package block builds immutable fragments of generated source text.
//
// A [Fragment] is an ordered sequence of format parts with an ordered
// sequence of arguments. Parts are either literal text or two-byte
// directives introduced by the [Sentinel] character. Directives that consume
// an argument are bound positionally to the arguments supplied in the same
// call.
//
// # Directives
//
//	$L  literal value, emitted without escaping  (one argument)
//	$N  name of a declaration                   (one argument)
//	$S  string, quoted by the renderer          (one argument)
//	$T  type reference                          (one argument)
//	$$  the sentinel character itself
//	$>  increase indentation level
//	$<  decrease indentation level
//
// # Building
//
// Fragments are assembled with a [Builder]. Each mutating method returns the
// builder so calls can be chained:
//
//	b := block.NewBuilder()
//	b.BeginControlFlow("if ($N == 0)", "count").
//		Statement("return $S", "empty").
//		EndControlFlow()
//
//	frag, err := b.Build()
//
// The first malformed call is recorded and reported by [Builder.Err] and
// [Builder.Build]; later calls are ignored. A rejected call never changes
// what the builder has already accumulated. Use [Builder.Append] to receive
// the error from a single call directly.
//
// # Composition
//
// A built fragment can be embedded into another builder with
// [Builder.AddFragment]. Its parts and arguments are copied verbatim without
// being parsed again.
//
// # Rendering
//
// This package does not render fragments. A renderer walks [Fragment.All]
// left to right, consuming the bound argument of every argument-consuming
// directive, expanding $$ to the sentinel, and tracking indentation with
// $> and $<.
package block
