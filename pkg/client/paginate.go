/*
 * Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
 * See LICENSE for license information.
 */

package client

import (
	"strconv"

	"net/url"

	"github.com/NREL/torc-sub003/pkg/api"
)

// CollectAll drains a paginated list endpoint. fetch is called with
// advancing offsets until the store reports has_more false; the offset
// advances by the number of items actually returned.
func CollectAll[T any](fetch func(api.ListParams) (api.ListResponse[T], error)) ([]T, error) {
	params := api.ListParams{Limit: api.DefaultListLimit}
	var all []T
	for {
		page, err := fetch(params)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || len(page.Items) == 0 {
			return all, nil
		}
		params.Offset += len(page.Items)
	}
}

// listQuery renders paging controls as query parameters.
func listQuery(params api.ListParams) url.Values {
	q := url.Values{}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.SortBy != "" {
		q.Set("sort_by", params.SortBy)
	}
	if params.ReverseSort {
		q.Set("reverse_sort", "true")
	}
	return q
}

func setInt64(q url.Values, key string, value int64) {
	if value != 0 {
		q.Set(key, strconv.FormatInt(value, 10))
	}
}

func setString(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func setBool(q url.Values, key string, value bool) {
	if value {
		q.Set(key, "true")
	}
}
