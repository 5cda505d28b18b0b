package resources

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/redis-developer/go-redis-enterprise/core"
)

// RedisModule manages Redis module packages available on the cluster.
type RedisModule struct {
	*core.EnterpriseResource
}

// UploadWithContext uploads a module package archive. The cluster queues
// validation and distribution as an action; the returned handle tracks it.
func (m *RedisModule) UploadWithContext(ctx context.Context, filename string, contents io.Reader) (core.Record, *core.AsyncResult, error) {
	data, err := io.ReadAll(contents)
	if err != nil {
		return nil, nil, err
	}
	body := core.Params{
		"module": core.FileData{Filename: filename, Content: data},
	}
	headers := []http.Header{{core.HeaderContentType: []string{core.ContentTypeMultipartForm}}}
	record, err := core.RequestWithHeaders[core.Record](ctx, m, "POST", "v2/modules", nil, body, headers)
	if err != nil {
		return nil, nil, err
	}
	return record, core.MaybeAsyncResultFromRecord(ctx, record, m.Rest), nil
}

func (m *RedisModule) Upload(filename string, contents io.Reader) (core.Record, *core.AsyncResult, error) {
	return m.UploadWithContext(m.Rest.GetCtx(), filename, contents)
}

// DeleteV2WithContext removes an uploaded module through the v2 endpoint,
// which unlike v1 also detaches it from module storage. Requires cluster
// software 7.2 or later.
func (m *RedisModule) DeleteV2WithContext(ctx context.Context, uid any) (*core.AsyncResult, error) {
	record, err := core.Request[core.Record](ctx, m, "DELETE", fmt.Sprintf("v2/modules/%v", uid), nil, nil)
	if err != nil {
		return nil, err
	}
	return core.MaybeAsyncResultFromRecord(ctx, record, m.Rest), nil
}

func (m *RedisModule) DeleteV2(uid any) (*core.AsyncResult, error) {
	return m.DeleteV2WithContext(m.Rest.GetCtx(), uid)
}
