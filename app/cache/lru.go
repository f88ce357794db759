package cache

// lruList maintains eviction order for filter-view entries.
type lruList struct {
	head  *lruNode
	tail  *lruNode
	nodes map[string]*lruNode
	size  int
}

type lruNode struct {
	key        string
	prev, next *lruNode
}

func newLRUList() *lruList {
	head := &lruNode{}
	tail := &lruNode{}
	head.next = tail
	tail.prev = head
	return &lruList{
		head:  head,
		tail:  tail,
		nodes: make(map[string]*lruNode),
	}
}

// touch adds a key at the front, or moves it there if already present.
func (l *lruList) touch(key string) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		l.pushFront(node)
		return
	}
	node := &lruNode{key: key}
	l.nodes[key] = node
	l.pushFront(node)
	l.size++
}

// remove drops a key from the list.
func (l *lruList) remove(key string) {
	if node, exists := l.nodes[key]; exists {
		l.unlink(node)
		delete(l.nodes, key)
		l.size--
	}
}

// removeOldest drops and returns the least recently used key, or "" when
// the list is empty.
func (l *lruList) removeOldest() string {
	if l.size == 0 {
		return ""
	}
	oldest := l.tail.prev
	l.unlink(oldest)
	delete(l.nodes, oldest.key)
	l.size--
	return oldest.key
}

func (l *lruList) pushFront(node *lruNode) {
	node.next = l.head.next
	node.prev = l.head
	l.head.next.prev = node
	l.head.next = node
}

func (l *lruList) unlink(node *lruNode) {
	node.prev.next = node.next
	node.next.prev = node.prev
}
