package euler

import "strconv"

// sieve returns composite flags for [0, limit).
func sieve(limit int) []bool {
	composite := make([]bool, limit)
	if limit > 0 {
		composite[0] = true
	}
	if limit > 1 {
		composite[1] = true
	}
	for i := 2; i*i < limit; i++ {
		if composite[i] {
			continue
		}
		for j := i * i; j < limit; j += i {
			composite[j] = true
		}
	}
	return composite
}

func largestPrimeFactor() string {
	n := 600851475143
	largest := 1
	for f := 2; f*f <= n; f++ {
		for n%f == 0 {
			largest = f
			n /= f
		}
	}
	if n > 1 {
		largest = n
	}
	return strconv.Itoa(largest)
}

func nthPrime() string {
	const (
		target = 10001
		// p(n) < n(ln n + ln ln n) for n >= 6.
		bound = 120_000
	)
	composite := sieve(bound)
	count := 0
	for i, c := range composite {
		if c {
			continue
		}
		count++
		if count == target {
			return strconv.Itoa(i)
		}
	}
	return "0"
}

func summationOfPrimes() string {
	composite := sieve(2_000_000)
	sum := 0
	for i, c := range composite {
		if !c {
			sum += i
		}
	}
	return strconv.Itoa(sum)
}

func circularPrimes() string {
	const limit = 1_000_000
	composite := sieve(limit)
	count := 0
	for p := 2; p < limit; p++ {
		if composite[p] {
			continue
		}
		digits := strconv.Itoa(p)
		circular := true
		for r := 1; r < len(digits); r++ {
			rotated, _ := strconv.Atoi(digits[r:] + digits[:r])
			if composite[rotated] {
				circular = false
				break
			}
		}
		if circular {
			count++
		}
	}
	return strconv.Itoa(count)
}
