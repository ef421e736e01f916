/*
Package nectar implements a delimiter-based text templating engine with
synchronous and asynchronous rendering modes.

Templates interleave literal text with {{...}} tags: escaped and raw variable
interpolation, conditional and looping sections, registered function calls,
capability-checked method calls on context objects, comments, and
filesystem-backed partials. Parsing is a single pass that produces an
immutable node tree, so a compiled template can be rendered concurrently.

The engine ships a built-in helper catalog (strings, dates, math, collections,
utilities) and accepts custom synchronous and asynchronous functions under one
shared namespace. Asynchronous rendering awaits each async call where its tag
appears and can substitute per-name fallback values when such a call fails.

For the template syntax and a complete list of built-in helpers, see the
README.md file.
*/
package nectar
