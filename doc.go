// Package observe implements reactive properties for Go structs: declared
// once per owner type, registered in a manifest, and observed per instance
// through prioritized callback containers. Bound callbacks hold their owner
// weakly, so observers never keep observed objects alive. Delay and ignore
// scopes coalesce or suppress notifications across batches of writes, and
// Watch attaches expression-gated callbacks evaluated by pluggable engines
// (expr-lang by default, CEL, or JavaScript behind the js_eval build tag).
package observe
