// internal/common/camunda/camundatest/jobclient.go
// Package camundatest provides an in-memory worker.JobClient for handler tests.
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Call is one command received by the gateway. CtxErr is the error of the
// context the command was sent on, captured at the time of the call.
type Call struct {
	JobKey       int64
	Retries      int32
	ErrorCode    string
	ErrorMessage string
	Variables    string
	CtxErr       error
}

// Gateway records complete, fail and throw-error commands. Every other RPC
// panics through the nil embedded client.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completes []Call
	fails     []Call
	throws    []Call
}

func (g *Gateway) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completes = append(g.completes, Call{JobKey: in.JobKey, Variables: in.Variables, CtxErr: ctx.Err()})
	return &pb.CompleteJobResponse{}, ctx.Err()
}

func (g *Gateway) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fails = append(g.fails, Call{
		JobKey:       in.JobKey,
		Retries:      in.Retries,
		ErrorMessage: in.ErrorMessage,
		Variables:    in.Variables,
		CtxErr:       ctx.Err(),
	})
	return &pb.FailJobResponse{}, ctx.Err()
}

func (g *Gateway) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.throws = append(g.throws, Call{
		JobKey:       in.JobKey,
		ErrorCode:    in.ErrorCode,
		ErrorMessage: in.ErrorMessage,
		Variables:    in.Variables,
		CtxErr:       ctx.Err(),
	})
	return &pb.ThrowErrorResponse{}, ctx.Err()
}

func (g *Gateway) Completes() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.completes...)
}

func (g *Gateway) Fails() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.fails...)
}

func (g *Gateway) Throws() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.throws...)
}

// JobClient builds real zeebe commands against a Gateway.
type JobClient struct {
	Gateway *Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, noRetry)
}
