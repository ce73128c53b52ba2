package stats

/*
This file defines all the metrics being collected. As new metrics are added please follow this pattern.
*/

const (
	/************************* Driver metrics **************************/
	/*
		number of scheduling passes run
	*/
	DriverPassCounter = "passCounter"

	/*
		time spent in one scheduling pass, from first submission until the pool drains
	*/
	DriverPassLatency_ms = "passLatency_ms"

	/*
		number of jobs in the run
	*/
	DriverJobsGauge = "jobsGauge"

	/*
		number of jobs in the completed registry
	*/
	DriverCompletedJobsGauge = "completedJobsGauge"

	/*
		number of jobs at or above the abandonment ceiling when the run ended
	*/
	DriverAbandonedJobsGauge = "abandonedJobsGauge"

	/*
		number of nodes in the node registry
	*/
	DriverNodesGauge = "nodesGauge"

	/************************* Pass scheduler metrics **************************/
	/*
		size of the worker pool for the current pass (nodes * fan-out factor)
	*/
	SchedPoolSizeGauge = "poolSizeGauge"

	/*
		number of jobs submitted in the current pass
	*/
	SchedPendingJobsGauge = "pendingJobsGauge"

	/*
		number of tasks that ended with a plumbing error instead of an outcome
	*/
	SchedTaskErrorCounter = "taskErrorCounter"

	/*
		number of tasks that panicked (also counted in taskErrorCounter)
	*/
	SchedTaskPanicCounter = "taskPanicCounter"

	/************************* Job runner metrics **************************/
	/*
		number of job executions started
	*/
	RunnerJobRunCounter = "jobRunCounter"

	/*
		job outcome counters
	*/
	RunnerJobSucceededCounter  = "jobSucceededCounter"
	RunnerJobFailedCounter     = "jobFailedCounter"
	RunnerJobRebalancedCounter = "jobRebalancedCounter"
	RunnerJobAbandonedCounter  = "jobAbandonedCounter"
	RunnerJobTimedOutCounter   = "jobTimedOutCounter"

	/*
		wall time of a single job execution, including timed out ones
	*/
	RunnerJobLatency_ms = "jobLatency_ms"

	/************************* Rebalancer metrics **************************/
	/*
		number of times node discovery was consulted to rebalance a job
	*/
	RebalanceFetchCounter = "rebalanceFetchCounter"

	/*
		time spent choosing a new host, including node discovery
	*/
	RebalanceLatency_ms = "rebalanceLatency_ms"

	/*
		number of rebalance attempts that found no unused host
	*/
	RebalanceNoHostCounter = "rebalanceNoHostCounter"

	/************************* Discovery metrics **************************/
	/*
		number of node discovery attempts, including retries
	*/
	DiscoveryFetchCounter = "discoveryFetchCounter"

	/*
		number of failed node discovery attempts
	*/
	DiscoveryFetchErrCounter = "discoveryFetchErrCounter"
)
