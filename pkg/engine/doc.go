// Package engine is the step orchestration and retry core of biosetup. It
// turns arbitrary external actions (shell commands, network fetches,
// library calls) into reliable, observable, idempotent units of work:
//
//   - Action: a fallible operation with a human-readable label.
//   - RetryExecutor: fixed-budget, fixed-delay retries for network-facing
//     actions, with WARN per failed attempt and ERROR on exhaustion.
//   - Workspace/EnsureDir/EnsureCleanDir: idempotent staging-directory
//     lifecycle for source builds.
//   - SourceInstaller: shallow-clone a repository into the workspace, then
//     run a build recipe without retry.
//   - Pipeline: an ordered, immutable list of named steps executed strictly
//     in sequence with fail-fast semantics.
//
// Errors are classified (precondition, transient, permanent, resource) and
// the classification drives both retry decisions and the process exit code.
package engine
