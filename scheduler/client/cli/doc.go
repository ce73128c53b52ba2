/*
Package cli implements the fanout command line. The run command loads a
configuration, discovers nodes, assigns the test list to them round robin and
drives scheduling passes until every job succeeds or the pass cap is reached.
The process exit code tells callers how the run ended (see common/errors).
*/
package cli
