// Command server runs a small GraphQL API with business-rule validation
// wrapped around its resolvers. It keeps its data in memory and exists to
// exercise the whole stack end to end: schema building from SDL, validator
// registration, resolver wrapping, profiling, and the HTTP adapter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/jensneuse/abstractlogger"
	"go.uber.org/zap"

	validity "github.com/hanpama/validity"
	"github.com/hanpama/validity/internal/eventbus"
	"github.com/hanpama/validity/internal/otel"
	"github.com/hanpama/validity/schema"
	"github.com/hanpama/validity/server"
)

const sdl = `
type Query {
  user(id: ID!): User
  users: [User!]
}

type Mutation {
  createUser(email: String!, name: String!, age: Int!): User
}

type User {
  id: ID!
  email: String!
  name: String!
  age: Int!
  posts: [Post!]
}

type Post {
  id: ID!
  title: String!
  published: Boolean!
}
`

type user struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Age   int    `json:"age"`
}

type post struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Published bool   `json:"published"`
	AuthorID  string `json:"-"`
}

type store struct {
	mu     sync.RWMutex
	users  map[string]*user
	posts  map[string]*post
	nextID int
}

func newStore() *store {
	s := &store{
		users: map[string]*user{
			"user-1": {ID: "user-1", Email: "john@example.com", Name: "John Doe", Age: 30},
			"user-2": {ID: "user-2", Email: "jane@example.com", Name: "Jane Smith", Age: 28},
		},
		posts: map[string]*post{
			"post-1": {ID: "post-1", Title: "Getting Started with Go", Published: true, AuthorID: "user-1"},
			"post-2": {ID: "post-2", Title: "Draft Post", Published: false, AuthorID: "user-1"},
		},
		nextID: 3,
	}
	return s
}

func (s *store) resolvers() schema.Resolvers {
	return schema.Resolvers{
		"Query.user": func(ctx context.Context, source any, args map[string]any) (any, error) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			id, _ := args["id"].(string)
			if u, ok := s.users[id]; ok {
				return u, nil
			}
			return nil, nil
		},
		"Query.users": func(ctx context.Context, source any, args map[string]any) (any, error) {
			s.mu.RLock()
			defer s.mu.RUnlock()
			out := make([]*user, 0, len(s.users))
			for _, u := range s.users {
				out = append(out, u)
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out, nil
		},
		"Mutation.createUser": func(ctx context.Context, source any, args map[string]any) (any, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			email, _ := args["email"].(string)
			name, _ := args["name"].(string)
			age, _ := args["age"].(int)
			u := &user{
				ID:    fmt.Sprintf("user-%d", s.nextID),
				Email: email,
				Name:  name,
				Age:   age,
			}
			s.nextID++
			s.users[u.ID] = u
			return u, nil
		},
		"User.posts": func(ctx context.Context, source any, args map[string]any) (any, error) {
			u, ok := source.(*user)
			if !ok {
				return nil, nil
			}
			s.mu.RLock()
			defer s.mu.RUnlock()
			var out []*post
			for _, p := range s.posts {
				if p.AuthorID == u.ID {
					out = append(out, p)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return out, nil
		},
	}
}

// registry wires up the demo's business rules: an audit rule on every field,
// a rule per returned User, a rule on the one mutation, and a global rule
// that runs once per request.
func registry() *validity.Registry {
	reg := validity.NewRegistry()
	reg.Register(validity.SelectorGlobal, func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		// Demo stand-in for a request-level policy check.
		return nil, nil
	})
	reg.Register("User", func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		if id, _ := args["id"].(string); id == "user-3" {
			return []validity.Result{{Message: "user-3 is restricted", Detail: "requested restricted id"}}, nil
		}
		return nil, nil
	})
	reg.Register(validity.FieldSelector("Mutation", "createUser"), func(ctx context.Context, source any, args map[string]any) ([]validity.Result, error) {
		var rs []validity.Result
		if age, _ := args["age"].(int); age < 18 {
			rs = append(rs, validity.Result{Message: "user must be at least 18 years old"})
		}
		if email, _ := args["email"].(string); !strings.Contains(email, "@") {
			rs = append(rs, validity.Result{Message: "email address is malformed"})
		}
		return rs, nil
	})
	return reg
}

func main() {
	addr := flag.String("addr", ":8080", "the address to listen on")
	otelEndpoint := flag.String("otel.endpoint", "", "OTLP collector endpoint")
	otelService := flag.String("otel.service", "validity-demo", "OpenTelemetry service name")
	pretty := flag.Bool("pretty", true, "pretty-print JSON responses")
	profiling := flag.Bool("profiling", false, "print per-field timing after each request")
	wrapErrors := flag.Bool("wrap-errors", false, "sanitize resolver errors with correlation ids")
	flag.Parse()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	logger := abstractlogger.NewZapLogger(zl, abstractlogger.InfoLevel)

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(*otelEndpoint, *otelService)
	if err != nil {
		log.Fatalf("failed to set up telemetry: %v", err)
	}
	defer shutdown(context.Background())

	sch, err := schema.BuildSDL("demo", sdl, newStore().resolvers())
	if err != nil {
		log.Fatalf("failed to build schema: %v", err)
	}

	opts := []validity.Option{validity.WithLogger(logger)}
	if *profiling {
		opts = append(opts, validity.WithProfiling())
	}
	if *wrapErrors {
		opts = append(opts, validity.WithWrapErrors())
	}
	w, err := validity.WrapResolvers(sch, registry(), opts...)
	if err != nil {
		log.Fatalf("failed to wrap resolvers: %v", err)
	}

	srvOpts := []server.Option{server.WithValidation(w)}
	if *pretty {
		srvOpts = append(srvOpts, server.WithPretty())
	}
	h := server.New(sch, srvOpts...)

	log.Printf("GraphQL server listening on %s", *addr)
	if err := http.ListenAndServe(*addr, h); err != nil {
		log.Fatal(err)
	}
}
