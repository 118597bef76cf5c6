package embedder

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// embedMethod is the fully-qualified gRPC method path for the remote
// embedding service. There is no generated client stub for this service in
// this module: the request and response messages are the pre-built
// protobuf well-known types below, invoked directly through the raw
// grpc.ClientConn, so no .pb.go file needs to exist for this transport to
// work.
const embedMethod = "/wannadb.embedding.Embedder/Embed"

// GRPCProvider embeds text via a remote embedding service, encoding the
// request as a wrapperspb.StringValue and decoding the response as a
// wrapperspb.BytesValue holding a little-endian float32 vector.
type GRPCProvider struct {
	conn *grpc.ClientConn
	dims int
}

// DialGRPC opens an insecure connection to a remote embedding service at
// addr. Callers are responsible for calling Close when done.
func DialGRPC(addr string, dims int) (*GRPCProvider, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("embedder: dial %s: %w", addr, err)
	}
	return &GRPCProvider{conn: conn, dims: dims}, nil
}

// Close releases the underlying connection.
func (p *GRPCProvider) Close() error { return p.conn.Close() }

// Embed implements Provider.
func (p *GRPCProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := wrapperspb.String(text)
	resp := &wrapperspb.BytesValue{}
	if err := p.conn.Invoke(ctx, embedMethod, req, resp); err != nil {
		return nil, fmt.Errorf("embedder: grpc embed: %w", err)
	}
	return decodeVector(resp.Value)
}

// Dimensions implements Provider.
func (p *GRPCProvider) Dimensions() int { return p.dims }

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedder: vector payload length %d not a multiple of 4", len(b))
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(b[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

func encodeVector(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], math.Float32bits(f))
	}
	return out
}
