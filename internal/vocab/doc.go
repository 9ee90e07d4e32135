// Package vocab implements the invocation vocabulary model: a deduplicated
// in-memory record of a single command's observed invocations, their
// captured outputs, and the mapping between them.
//
// All identity is content-addressed. Invocations are keyed by the SHA-256
// digest of a NUL-separated encoding of their argument sequence; outputs are
// keyed by the SHA-256 digest of their raw bytes. Content-identical outputs
// from different invocations share one entry, and the call map links each
// invocation key to the output key most recently observed for it.
//
// The store holds these invariants after every mutation:
//   - every call map key exists in the invocations map
//   - every call map value exists in the outputs map
//   - the invocations and outputs maps only ever grow
//
// A trained store is handed to the artifact generator, which embeds the
// serialized tables in a standalone replay script. The digest scheme here
// must stay byte-for-byte reproducible by that script (see Canonicalize).
package vocab
