// SPDX-License-Identifier: MIT

// The cluster usage log is a plain text file that a cron job appends to once a minute.  Each run
// appends one block: a timestamp line in ctime(3) format, a column header, and one line per job
// as printed by squeue with a TRES_ALLOC column:
//
//	Thu Dec 18 04:37:01 2025
//	JOBID               USER                TRES_ALLOC                                                      STATE
//	61040               matbwyler           cpu=32,mem=64G,node=1,billing=32,gres/gpu=4,gres/gpu:a40=4      RUNNING
//
// The decoded form is a four-level mapping timestamp -> user -> gpu type -> job id -> Job.  Only
// jobs that carry a typed GPU (a `gres/gpu:<type>` TRES key) are retained.  Key order at every
// level is first-seen order in the input, and it is preserved when the result is encoded.

package usage

// Every field is nullable: a TRES key that is absent, or a numeric value that can't be coerced,
// encodes as null.  Mem is kept exactly as written, eg "64G".

type Job struct {
	GpuNumber *int64  `json:"gpu_number"`
	Cpu       *int64  `json:"cpu"`
	Mem       *string `json:"mem"`
	Node      *int64  `json:"node"`
	Billing   *int64  `json:"billing"`
	State     string  `json:"state"`
}

// job id -> Job
type Jobs = OrderedMap[*Job]

// gpu type -> job id -> Job
type GpuTypes = OrderedMap[*Jobs]

// user -> gpu type -> job id -> Job
type Users = OrderedMap[*GpuTypes]

// timestamp -> user -> gpu type -> job id -> Job
type Result = OrderedMap[*Users]

func NewResult() *Result {
	return NewOrderedMap[*Users]()
}

// Counters collected while parsing, for logging.  None of the conditions counted here are errors.

type Stats struct {
	Lines        int // All lines seen
	Timestamps   int // Timestamp lines
	Headers      int // JOBID header lines
	Records      int // Lines that matched the record pattern
	Kept         int // Records retained (a job with two gpu types counts once)
	NoGpu        int // Records dropped for lack of a typed GPU
	Orphans      int // Records dropped because no timestamp had been seen yet
	Unrecognized int // Nonblank lines matching nothing
}
