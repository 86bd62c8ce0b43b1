// Package manifest builds named [block.Fragment] values from a YAML recipe
// document.
//
// # Document
//
// A manifest has two top-level keys. vars holds values visible to every
// argument expression. fragments maps each fragment name to an ordered list
// of steps that drive a [block.Builder]:
//
//	vars:
//	  limit: 10
//	fragments:
//	  guard:
//	    - begin: "if ($N > $L)"
//	      args: ["'count'", "limit"]
//	    - statement: "return $S"
//	      args: ["'too many'"]
//	    - end:
//	  body:
//	    - embed: guard
//	    - statement: "count++"
//
// # Steps
//
// Every step names exactly one kind:
//
//	add:       format          Builder.Add
//	statement: format          Builder.Statement
//	begin:     construct       Builder.BeginControlFlow
//	next:      construct       Builder.NextControlFlow
//	end:       [construct]     Builder.EndControlFlow or EndControlFlowWith
//	indent:    [count]         Builder.Indent, count times (default 1)
//	unindent:  [count]         Builder.Unindent, count times (default 1)
//	embed:     name            Builder.AddFragment with another fragment
//
// The format kinds accept an args list. Each entry is an expr-lang
// expression evaluated when the fragment is built; its result becomes the
// argument bound to the next argument-consuming directive.
//
// # Expressions
//
// Expressions see the manifest vars and the following builtins. A var with
// the same name shadows a builtin.
//
//	env(name)                  value of a process environment variable
//	fragment(name)             another fragment of the manifest
//	mung.prefix(list, item...) prepend items to a PATH-style list
//
// Fragments referenced by embed or fragment() are built first. A reference
// cycle or an unknown name is reported as an error of the referencing
// fragment.
package manifest
