package typeutil

// Stack 是基于切片的后进先出序列，零值可直接使用。
type Stack[T any] struct {
	items []T
}

func NewStack[T any](capacity int) *Stack[T] {
	return &Stack[T]{items: make([]T, 0, capacity)}
}

// Push 将元素压入栈顶。
func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop 弹出栈顶元素，栈为空时返回零值与 false。
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	item := s.items[last]
	s.items[last] = zero
	s.items = s.items[:last]
	return item, true
}

// Peek 返回栈顶元素但不弹出。
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) IsEmpty() bool {
	return len(s.items) == 0
}

// Items 返回自栈底到栈顶的元素副本。
func (s *Stack[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Range 自栈顶向栈底遍历，回调返回 false 时提前终止。
func (s *Stack[T]) Range(f func(item T) bool) {
	for i := len(s.items) - 1; i >= 0; i-- {
		if !f(s.items[i]) {
			return
		}
	}
}
