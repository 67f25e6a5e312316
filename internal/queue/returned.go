package queue

// returnedSet is a min-heap of ids that were checked out and released back
// without removal. The smallest id is preferred on the next pop, ahead of
// advancing queueTail, so older re-released items win over brand new ones.
type returnedSet []uint64

func (s returnedSet) Len() int            { return len(s) }
func (s returnedSet) Less(i, j int) bool  { return s[i] < s[j] }
func (s returnedSet) Swap(i, j int)       { s[i], s[j] = s[j], s[i] }
func (s *returnedSet) Push(x interface{}) { *s = append(*s, x.(uint64)) }
func (s *returnedSet) Pop() interface{} {
	old := *s
	n := len(old)
	v := old[n-1]
	*s = old[:n-1]
	return v
}
