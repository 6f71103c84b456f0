// Package framegraph implements per-frame render pass declaration,
// transient resource allocation, dependency tracking, multi-threaded
// recording, and GPU submission.
package framegraph

// Handle is an opaque index into one of the frame graph's per-frame
// resource tables. Handles are valid only for the frame in which they
// were issued; after Builder.Reset clears the tables, a stale handle from a
// prior frame refers to nothing.
type Handle uint32

// InvalidHandle marks the absence of a resource.
const InvalidHandle Handle = 0

// MaxResourcesPerFrame bounds every per-frame resource table. An
// allocation past it returns an error; it does not panic.
const MaxResourcesPerFrame = 4096

// PassHandle identifies a declared pass within the current frame.
type PassHandle uint32

const InvalidPassHandle PassHandle = 0
