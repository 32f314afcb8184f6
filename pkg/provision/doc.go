// Package provision builds the fixed, ordered step list that turns a fresh
// Ubuntu host into a bioinformatics workstation: preconditions, apt mirror
// and packages, editor/shell dotfiles, Docker and image prefetch, Miniconda
// with bioconda channels and a managed environment, source-built samtools
// stack, and cleanup. The steps are static configuration plugged into the
// engine's pipeline contract; all control flow lives in pkg/engine.
package provision
