package navigation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Separator разделяет сегменты идентификатора экрана и callback-данных.
const Separator = ":"

// unspecifiedArity означает, что рендерер не объявил число параметров.
const unspecifiedArity = -1

type route struct {
	prefix   string
	renderer Renderer
	arity    int
}

// RouteOption настраивает регистрацию рендерера.
type RouteOption func(*route)

// Arity объявляет, сколько сегментов-параметров принимает рендерер.
// Используется только при проверке маршрутов на старте.
func Arity(n int) RouteOption {
	return func(r *route) {
		if n >= 0 {
			r.arity = n
		}
	}
}

// Registry сопоставляет префиксы идентификаторов экранов с рендерерами.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]route
}

// NewRegistry создает пустой реестр.
func NewRegistry() *Registry {
	return &Registry{routes: make(map[string]route)}
}

// Register связывает префикс с рендерером. Повторная регистрация того же префикса
// заменяет предыдущую.
func (r *Registry) Register(prefix string, renderer Renderer, opts ...RouteOption) {
	rt := route{prefix: prefix, renderer: renderer, arity: unspecifiedArity}
	for _, opt := range opts {
		opt(&rt)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[prefix] = rt
}

// Resolve находит самый длинный префикс, совпадающий с идентификатором целиком
// или за которым следует разделитель.
func (r *Registry) Resolve(screenID string) (string, Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	var found *route
	for prefix, rt := range r.routes {
		if !MatchesPrefix(screenID, prefix) {
			continue
		}
		if found == nil || len(prefix) > len(best) {
			best = prefix
			found = &rt
		}
	}
	if found == nil || found.renderer == nil {
		return "", nil, fmt.Errorf("%w: %q", ErrScreenNotFound, screenID)
	}
	return found.prefix, found.renderer, nil
}

// Prefixes возвращает зарегистрированные префиксы в алфавитном порядке.
func (r *Registry) Prefixes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.routes))
	for p := range r.routes {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Validate проверяет маршруты при старте: корректность префиксов и отсутствие
// параметризованных префиксов, которые перехватывают идентификаторы более длинных маршрутов.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prefixes := make([]string, 0, len(r.routes))
	for p := range r.routes {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	var errs []error
	for _, p := range prefixes {
		if err := validatePrefix(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if r.routes[p].renderer == nil {
			errs = append(errs, fmt.Errorf("%w: %q has no renderer", ErrInvalidPrefix, p))
		}
	}

	for _, short := range prefixes {
		arity := r.routes[short].arity
		if arity <= 0 {
			continue
		}
		for _, long := range prefixes {
			if long == short || !strings.HasPrefix(long, short+Separator) {
				continue
			}
			extra := len(strings.Split(strings.TrimPrefix(long, short+Separator), Separator))
			if extra <= arity {
				errs = append(errs, fmt.Errorf("%w: %q takes %d parameter(s) and shadows %q",
					ErrAmbiguousPrefix, short, arity, long))
			}
		}
	}

	return errors.Join(errs...)
}

func validatePrefix(p string) error {
	if strings.TrimSpace(p) == "" {
		return fmt.Errorf("%w: empty prefix", ErrInvalidPrefix)
	}
	if strings.ContainsAny(p, " \t\n") {
		return fmt.Errorf("%w: %q contains whitespace", ErrInvalidPrefix, p)
	}
	for _, seg := range strings.Split(p, Separator) {
		if seg == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPrefix, p)
		}
	}
	return nil
}

// MatchesPrefix сообщает, совпадает ли id с prefix целиком или по границе сегмента.
func MatchesPrefix(id, prefix string) bool {
	if prefix == "" {
		return false
	}
	return id == prefix || strings.HasPrefix(id, prefix+Separator)
}
