package unexpected_test

import (
	"testing"

	"github.com/sentrytypes/sentrytypes/protocol/unexpected"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		raw  string
		want unexpected.Kind
	}{
		{`["foobarbaz"]`, unexpected.Array},
		{`42`, unexpected.Integer},
		{`-7`, unexpected.Integer},
		{`18446744073709551616`, unexpected.Integer},
		{`4.2`, unexpected.Float},
		{`1e3`, unexpected.Float},
		{`"test"`, unexpected.String},
		{`true`, unexpected.Boolean},
		{`null`, unexpected.Null},
		{` {"a": [1, {"b": null}]} `, unexpected.Object},
	}
	for _, c := range cases {
		kind, err := unexpected.Classify([]byte(c.raw))
		require.NoError(t, err, c.raw)
		require.Equal(t, c.want, kind, c.raw)
	}
}

func TestClassifyErrors(t *testing.T) {
	_, err := unexpected.Classify(nil)
	require.ErrorIs(t, err, unexpected.ErrEmpty)

	for _, raw := range []string{`[1,`, `{"a"}`, `1 2`, `tru`} {
		_, err = unexpected.Classify([]byte(raw))
		require.Error(t, err, raw)
	}
}

func TestError(t *testing.T) {
	require.EqualError(t, unexpected.Of([]byte(`false`)), "unexpected boolean")
	require.EqualError(t, &unexpected.Error{Kind: unexpected.Integer}, "unexpected integer")
	require.Equal(t, unexpected.Null, unexpected.KindOf([]byte(`{`)))
}
