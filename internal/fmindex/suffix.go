package fmindex

import "context"

// suffixArray sorts the suffixes of text by prefix doubling. Each round
// orders suffixes by their first 2k symbols using two stable counting sorts,
// so construction is O(n log n). text must end with a unique smallest
// symbol.
func suffixArray(ctx context.Context, text []byte) ([]int32, error) {
	n := len(text)
	sa := make([]int32, n)
	rank := make([]int32, n)
	tmp := make([]int32, n)

	size := 256
	if n > size {
		size = n
	}
	cnt := make([]int32, size+1)

	// round zero: bucket by first symbol
	for i := 0; i < n; i++ {
		cnt[text[i]]++
	}
	sum := int32(0)
	for c := 0; c < 256; c++ {
		cnt[c], sum = sum, sum+cnt[c]
	}
	for i := 0; i < n; i++ {
		sa[cnt[text[i]]] = int32(i)
		cnt[text[i]]++
	}
	classes := int32(0)
	for i := 0; i < n; i++ {
		if i > 0 && text[sa[i]] != text[sa[i-1]] {
			classes++
		}
		rank[sa[i]] = classes
	}
	classes++

	sa2 := make([]int32, n)
	for k := 1; int(classes) < n; k <<= 1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// order by second key: suffixes without a second half first
		p := 0
		start := n - k
		if start < 0 {
			start = 0
		}
		for i := start; i < n; i++ {
			sa2[p] = int32(i)
			p++
		}
		for _, s := range sa {
			if int(s) >= k {
				sa2[p] = s - int32(k)
				p++
			}
		}

		// stable counting sort by first key
		for c := int32(0); c <= classes; c++ {
			cnt[c] = 0
		}
		for i := 0; i < n; i++ {
			cnt[rank[i]]++
		}
		sum = 0
		for c := int32(0); c < classes; c++ {
			cnt[c], sum = sum, sum+cnt[c]
		}
		for _, s := range sa2 {
			sa[cnt[rank[s]]] = s
			cnt[rank[s]]++
		}

		second := func(i int32) int32 {
			if int(i)+k < n {
				return rank[int(i)+k]
			}
			return -1
		}
		tmp[sa[0]] = 0
		for i := 1; i < n; i++ {
			a, b := sa[i-1], sa[i]
			tmp[b] = tmp[a]
			if rank[a] != rank[b] || second(a) != second(b) {
				tmp[b]++
			}
		}
		rank, tmp = tmp, rank
		classes = rank[sa[n-1]] + 1
	}

	return sa, nil
}
