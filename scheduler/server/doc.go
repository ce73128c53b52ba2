/*
Package server runs test jobs across a set of nodes.

* Concepts *
Job:
  One test target pinned to a host. The host history only grows; the last entry is the active host.

Pass:
  One sweep over every pending job. At most len(nodes) * FanOutFactor jobs run at once.

Failures:
  Every non-zero run increments the job's failure count and the failure count of the host it ran on.
  At RebalanceAt failures the job moves to a host it has not used. At AbandonAt it is abandoned.

* Logic *
Driver:
  Run passes until every job has completed or MaxPasses is reached, then summarize.

JobRunner:
  Execute the composed command with a hard timeout and map the return code to an Outcome:
    0        Succeeded
    1-5      Retryable, the runner's own code is kept
    7        Rebalanced onto a new host
    8        Abandoned
    9        TimedOut
*/
package server
