package euler

import "strconv"

func countDivisors(n int) int {
	count := 1
	for f := 2; f*f <= n; f++ {
		exp := 0
		for n%f == 0 {
			n /= f
			exp++
		}
		count *= exp + 1
	}
	if n > 1 {
		count *= 2
	}
	return count
}

func highlyDivisibleTriangular() string {
	// T(n) = n(n+1)/2 with coprime factors n and n+1.
	for n := 1; ; n++ {
		var d int
		if n%2 == 0 {
			d = countDivisors(n/2) * countDivisors(n+1)
		} else {
			d = countDivisors(n) * countDivisors((n+1)/2)
		}
		if d > 500 {
			return strconv.Itoa(n * (n + 1) / 2)
		}
	}
}

func amicableNumbers() string {
	const limit = 10_000
	divSum := make([]int, limit)
	for i := 1; i < limit; i++ {
		for j := 2 * i; j < limit; j += i {
			divSum[j] += i
		}
	}
	total := 0
	for a := 2; a < limit; a++ {
		b := divSum[a]
		if b != a && b < limit && divSum[b] == a {
			total += a
		}
	}
	return strconv.Itoa(total)
}
