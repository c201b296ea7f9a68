package submatrix

// Budget divides the goroutines of a worker between concurrent column tasks
// and the inversion inside each task.
type Budget struct {
	Threads             int
	Tasks               int
	ThreadsPerInversion int
}

// PlanThreads returns the budget for threads goroutines over columns columns:
// at most min(threads, columns) tasks run concurrently, and each inversion
// may use max(1, threads/columns) goroutines.
func PlanThreads(threads, columns int) Budget {
	threads = max(1, threads)
	b := Budget{Threads: threads, Tasks: threads, ThreadsPerInversion: 1}
	if columns > 0 {
		b.ThreadsPerInversion = max(1, threads/columns)
		b.Tasks = min(threads, columns)
	}
	return b
}
